package matcher

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stratumdb/stratum/internal/collation"
	"github.com/stratumdb/stratum/pkg/model"
)

// Parse compiles a condition document into an Expression bound to coll.
// Malformed conditions and disallowed extension operators fail with a
// classified parse error; nothing is evaluated lazily, so a successfully
// parsed expression cannot fail at match time.
func Parse(condition bson.D, coll collation.Collator) (*Expression, error) {
	root, err := parseDocument(condition, coll)
	if err != nil {
		return nil, err
	}
	return &Expression{root: root}, nil
}

func parseDocument(condition bson.D, coll collation.Collator) (node, error) {
	children := make([]node, 0, len(condition))
	for _, el := range condition {
		if strings.HasPrefix(el.Key, "$") {
			child, err := parseTopLevelOperator(el.Key, el.Value, coll)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
			continue
		}
		child, err := parseField(el.Key, el.Value, coll)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &listNode{op: listAnd, children: children}, nil
}

func parseTopLevelOperator(name string, value any, coll collation.Collator) (node, error) {
	if _, ok := disallowedOperators[name]; ok {
		return nil, model.FailedToParsef("%s is not allowed in this context", name)
	}

	var op listOp
	switch name {
	case "$and":
		op = listAnd
	case "$or":
		op = listOr
	case "$nor":
		op = listNor
	default:
		return nil, model.FailedToParsef("unknown top level operator: %s", name)
	}

	items := asArray(value)
	if len(items) == 0 {
		return nil, model.FailedToParsef("%s argument must be a nonempty array", name)
	}
	children := make([]node, 0, len(items))
	for _, item := range items {
		sub := asDocument(item)
		if sub == nil {
			return nil, model.FailedToParsef("%s argument's entries must be objects", name)
		}
		child, err := parseDocument(sub, coll)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &listNode{op: op, children: children}, nil
}

func parseField(name string, value any, coll collation.Collator) (node, error) {
	path := strings.Split(name, ".")

	if re, ok := value.(primitive.Regex); ok {
		return newRegexNode(path, re.Pattern, re.Options)
	}

	if d := asDocument(value); d != nil && len(d) > 0 && strings.HasPrefix(d[0].Key, "$") {
		return parseOperatorDocument(path, d, coll)
	}

	return &comparisonNode{path: path, op: opEQ, value: value, coll: coll}, nil
}

func parseOperatorDocument(path []string, d bson.D, coll collation.Collator) (node, error) {
	// $options pairs with $regex regardless of field order.
	var regexOptions string
	for _, el := range d {
		if el.Key == "$options" {
			s, ok := el.Value.(string)
			if !ok {
				return nil, model.FailedToParsef("$options has to be a string")
			}
			regexOptions = s
		}
	}

	children := make([]node, 0, len(d))
	sawRegex := false
	for _, el := range d {
		child, err := parseOperator(path, el.Key, el.Value, regexOptions, coll)
		if err != nil {
			return nil, err
		}
		if el.Key == "$regex" {
			sawRegex = true
		}
		if child != nil {
			children = append(children, child)
		}
	}
	if regexOptions != "" && !sawRegex {
		return nil, model.FailedToParsef("$options needs a $regex")
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &listNode{op: listAnd, children: children}, nil
}

func parseOperator(path []string, name string, value any, regexOptions string, coll collation.Collator) (node, error) {
	if _, ok := disallowedOperators[name]; ok {
		return nil, model.FailedToParsef("%s is not allowed in this context", name)
	}

	switch name {
	case "$eq":
		return &comparisonNode{path: path, op: opEQ, value: value, coll: coll}, nil
	case "$ne":
		return &comparisonNode{path: path, op: opNE, value: value, coll: coll}, nil
	case "$gt":
		return &comparisonNode{path: path, op: opGT, value: value, coll: coll}, nil
	case "$gte":
		return &comparisonNode{path: path, op: opGTE, value: value, coll: coll}, nil
	case "$lt":
		return &comparisonNode{path: path, op: opLT, value: value, coll: coll}, nil
	case "$lte":
		return &comparisonNode{path: path, op: opLTE, value: value, coll: coll}, nil
	case "$in", "$nin":
		return parseInOperator(path, name, value, coll)
	case "$exists":
		want, err := truthiness(value)
		if err != nil {
			return nil, model.FailedToParsef("$exists takes a boolean argument")
		}
		return &existsNode{path: path, want: want}, nil
	case "$size":
		size, ok := toInt64(value)
		if !ok {
			f, isFloat := value.(float64)
			if !isFloat || f != float64(int64(f)) {
				return nil, model.FailedToParsef("$size needs a whole number")
			}
			size = int64(f)
		}
		if size < 0 {
			return nil, model.FailedToParsef("$size may not be negative")
		}
		return &sizeNode{path: path, size: int(size)}, nil
	case "$not":
		return parseNotOperator(path, value, coll)
	case "$regex":
		switch p := value.(type) {
		case string:
			return newRegexNode(path, p, regexOptions)
		case primitive.Regex:
			opts := p.Options
			if regexOptions != "" {
				opts = regexOptions
			}
			return newRegexNode(path, p.Pattern, opts)
		default:
			return nil, model.FailedToParsef("$regex has to be a string or a regex")
		}
	case "$options":
		return nil, nil // consumed alongside $regex
	case "$all", "$elemMatch", "$mod", "$type":
		return nil, model.FailedToParsef("%s is not supported by this matcher", name)
	default:
		return nil, model.FailedToParsef("unknown operator: %s", name)
	}
}

func parseInOperator(path []string, name string, value any, coll collation.Collator) (node, error) {
	items := asArray(value)
	if items == nil {
		return nil, model.FailedToParsef("%s needs an array", name)
	}
	n := &inNode{path: path, negate: name == "$nin", coll: coll}
	for _, item := range items {
		if re, ok := item.(primitive.Regex); ok {
			compiled, err := compileRegex(re.Pattern, re.Options)
			if err != nil {
				return nil, err
			}
			n.regexes = append(n.regexes, compiled)
			continue
		}
		n.values = append(n.values, item)
	}
	return n, nil
}

func parseNotOperator(path []string, value any, coll collation.Collator) (node, error) {
	if re, ok := value.(primitive.Regex); ok {
		child, err := newRegexNode(path, re.Pattern, re.Options)
		if err != nil {
			return nil, err
		}
		return &notNode{child: child}, nil
	}
	d := asDocument(value)
	if d == nil || len(d) == 0 {
		return nil, model.FailedToParsef("$not needs a regex or a document")
	}
	child, err := parseOperatorDocument(path, d, coll)
	if err != nil {
		return nil, err
	}
	return &notNode{child: child}, nil
}

func newRegexNode(path []string, pattern, options string) (node, error) {
	re, err := compileRegex(pattern, options)
	if err != nil {
		return nil, err
	}
	return &regexNode{path: path, pattern: pattern, options: options, re: re}, nil
}

func compileRegex(pattern, options string) (*regexp.Regexp, error) {
	var flags strings.Builder
	for _, opt := range options {
		switch opt {
		case 'i', 'm', 's':
			flags.WriteRune(opt)
		}
	}
	expr := pattern
	if flags.Len() > 0 {
		expr = "(?" + flags.String() + ")" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, model.FailedToParsef("invalid regex %q: %v", pattern, err)
	}
	return re, nil
}

func truthiness(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int, int32, int64:
		n, _ := toInt64(v)
		return n != 0, nil
	case float64:
		return t != 0, nil
	}
	return false, model.FailedToParsef("expected a boolean")
}
