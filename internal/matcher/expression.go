// Package matcher evaluates structural query predicates against decoded
// documents. Expressions are parsed once from a condition document and can
// be evaluated many times; the bound collator is a non-owning reference and
// may be swapped between evaluations.
package matcher

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stratumdb/stratum/internal/collation"
)

// Expression is a compiled structural predicate.
type Expression struct {
	root node
}

// Matches reports whether doc satisfies the predicate.
func (e *Expression) Matches(doc bson.D) bool {
	if e == nil || e.root == nil {
		return true
	}
	return e.root.matches(doc)
}

// SetCollator rebinds the string-comparison rule set used by every
// comparison in the expression. Safe only between evaluations.
func (e *Expression) SetCollator(coll collation.Collator) {
	if e != nil && e.root != nil {
		e.root.setCollator(coll)
	}
}

// Clone returns a deep, independent copy. Rebinding the clone's collator
// does not affect the original.
func (e *Expression) Clone() *Expression {
	if e == nil || e.root == nil {
		return &Expression{}
	}
	return &Expression{root: e.root.clone()}
}

type node interface {
	matches(doc bson.D) bool
	setCollator(coll collation.Collator)
	clone() node
}

type compareOp uint8

const (
	opEQ compareOp = iota
	opNE
	opGT
	opGTE
	opLT
	opLTE
)

type comparisonNode struct {
	path  []string
	op    compareOp
	value any
	coll  collation.Collator
}

func (n *comparisonNode) matches(doc bson.D) bool {
	switch n.op {
	case opEQ:
		return n.matchesEq(doc)
	case opNE:
		return !n.matchesEq(doc)
	case opGT:
		return n.matchesOrdered(doc, func(c int) bool { return c > 0 })
	case opGTE:
		return n.matchesOrdered(doc, func(c int) bool { return c >= 0 })
	case opLT:
		return n.matchesOrdered(doc, func(c int) bool { return c < 0 })
	default:
		return n.matchesOrdered(doc, func(c int) bool { return c <= 0 })
	}
}

func (n *comparisonNode) matchesEq(doc bson.D) bool {
	if matchPath(doc, n.path, func(v any) bool { return Equal(v, n.value, n.coll) }) {
		return true
	}
	// {field: null} also matches documents without the field.
	return n.value == nil && !pathExists(doc, n.path)
}

func (n *comparisonNode) matchesOrdered(doc bson.D, accept func(int) bool) bool {
	want := typeClass(n.value)
	return matchPath(doc, n.path, func(v any) bool {
		return typeClass(v) == want && accept(Compare(v, n.value, n.coll))
	})
}

func (n *comparisonNode) setCollator(coll collation.Collator) { n.coll = coll }

func (n *comparisonNode) clone() node {
	c := *n
	return &c
}

type inNode struct {
	path    []string
	negate  bool
	values  []any
	regexes []*regexp.Regexp
	coll    collation.Collator
}

func (n *inNode) matches(doc bson.D) bool {
	found := matchPath(doc, n.path, n.member)
	if !found && !pathExists(doc, n.path) {
		for _, v := range n.values {
			if v == nil {
				found = true
				break
			}
		}
	}
	if n.negate {
		return !found
	}
	return found
}

func (n *inNode) member(v any) bool {
	for _, candidate := range n.values {
		if Equal(v, candidate, n.coll) {
			return true
		}
	}
	if s, ok := v.(string); ok {
		for _, re := range n.regexes {
			if re.MatchString(s) {
				return true
			}
		}
	}
	return false
}

func (n *inNode) setCollator(coll collation.Collator) { n.coll = coll }

func (n *inNode) clone() node {
	c := *n
	c.values = append([]any(nil), n.values...)
	c.regexes = append([]*regexp.Regexp(nil), n.regexes...)
	return &c
}

type existsNode struct {
	path []string
	want bool
}

func (n *existsNode) matches(doc bson.D) bool {
	return pathExists(doc, n.path) == n.want
}

func (n *existsNode) setCollator(collation.Collator) {}

func (n *existsNode) clone() node {
	c := *n
	return &c
}

type regexNode struct {
	path    []string
	pattern string
	options string
	re      *regexp.Regexp
}

func (n *regexNode) matches(doc bson.D) bool {
	return matchPath(doc, n.path, func(v any) bool {
		switch s := v.(type) {
		case string:
			return n.re.MatchString(s)
		case primitive.Regex:
			return s.Pattern == n.pattern && s.Options == n.options
		}
		return false
	})
}

func (n *regexNode) setCollator(collation.Collator) {}

func (n *regexNode) clone() node {
	c := *n
	return &c
}

type sizeNode struct {
	path []string
	size int
}

func (n *sizeNode) matches(doc bson.D) bool {
	return matchPath(doc, n.path, func(v any) bool {
		arr := asArray(v)
		return arr != nil && len(arr) == n.size
	})
}

func (n *sizeNode) setCollator(collation.Collator) {}

func (n *sizeNode) clone() node {
	c := *n
	return &c
}

type notNode struct {
	child node
}

func (n *notNode) matches(doc bson.D) bool { return !n.child.matches(doc) }

func (n *notNode) setCollator(coll collation.Collator) { n.child.setCollator(coll) }

func (n *notNode) clone() node { return &notNode{child: n.child.clone()} }

type listOp uint8

const (
	listAnd listOp = iota
	listOr
	listNor
)

type listNode struct {
	op       listOp
	children []node
}

func (n *listNode) matches(doc bson.D) bool {
	switch n.op {
	case listAnd:
		for _, c := range n.children {
			if !c.matches(doc) {
				return false
			}
		}
		return true
	case listOr:
		for _, c := range n.children {
			if c.matches(doc) {
				return true
			}
		}
		return false
	default: // nor
		for _, c := range n.children {
			if c.matches(doc) {
				return false
			}
		}
		return true
	}
}

func (n *listNode) setCollator(coll collation.Collator) {
	for _, c := range n.children {
		c.setCollator(coll)
	}
}

func (n *listNode) clone() node {
	children := make([]node, len(n.children))
	for i, c := range n.children {
		children[i] = c.clone()
	}
	return &listNode{op: n.op, children: children}
}
