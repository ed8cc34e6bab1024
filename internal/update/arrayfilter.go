package update

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stratumdb/stratum/internal/collation"
	"github.com/stratumdb/stratum/internal/document"
	"github.com/stratumdb/stratum/internal/matcher"
	"github.com/stratumdb/stratum/pkg/model"
)

// elementMatcher decides whether one array element satisfies the removal
// condition. The three implementations cover the three shapes a condition
// can take; the choice is made once, in Init.
type elementMatcher interface {
	match(el document.Element) bool
	clone() elementMatcher
	setCollator(coll collation.Collator)
}

// objectMatcher handles conditions given as a document whose first field is
// not an operator: the condition is a structural match against sub-document
// elements, and non-document elements never match.
type objectMatcher struct {
	expr *matcher.Expression
}

func newObjectMatcher(condition bson.D, coll collation.Collator) (*objectMatcher, error) {
	expr, err := matcher.Parse(condition, coll)
	if err != nil {
		return nil, err
	}
	return &objectMatcher{expr: expr}, nil
}

func (m *objectMatcher) match(el document.Element) bool {
	if el.Kind() != document.KindDocument {
		return false
	}
	return m.expr.Matches(el.ExportValue().(bson.D))
}

func (m *objectMatcher) clone() elementMatcher {
	return &objectMatcher{expr: m.expr.Clone()}
}

func (m *objectMatcher) setCollator(coll collation.Collator) {
	m.expr.SetCollator(coll)
}

// wrappedObjectMatcher handles regex conditions and operator documents like
// {$gt: 5}. The element under test may not be a document, so both the
// condition and the candidate are wrapped in a singleton document with an
// empty field name; that puts them at the same level and lets one match
// expression compare scalars and documents alike.
type wrappedObjectMatcher struct {
	expr *matcher.Expression
}

func newWrappedObjectMatcher(condition any, coll collation.Collator) (*wrappedObjectMatcher, error) {
	expr, err := matcher.Parse(bson.D{{Key: "", Value: condition}}, coll)
	if err != nil {
		return nil, err
	}
	return &wrappedObjectMatcher{expr: expr}, nil
}

func (m *wrappedObjectMatcher) match(el document.Element) bool {
	candidate := bson.D{{Key: "", Value: el.ExportValue()}}
	return m.expr.Matches(candidate)
}

func (m *wrappedObjectMatcher) clone() elementMatcher {
	return &wrappedObjectMatcher{expr: m.expr.Clone()}
}

func (m *wrappedObjectMatcher) setCollator(coll collation.Collator) {
	m.expr.SetCollator(coll)
}

// equalityMatcher handles primitive and array conditions: an element
// matches on exact, type-sensitive equality under the bound collator.
type equalityMatcher struct {
	value any
	coll  collation.Collator
}

func (m *equalityMatcher) match(el document.Element) bool {
	return matcher.Equal(el.ExportValue(), m.value, m.coll)
}

func (m *equalityMatcher) clone() elementMatcher {
	c := *m
	return &c
}

func (m *equalityMatcher) setCollator(coll collation.Collator) {
	m.coll = coll
}

// ArrayFilterNode removes every element matching its condition from a
// target array. It owns exactly one elementMatcher, chosen when Init
// classifies the condition, and is stateless across Apply calls.
type ArrayFilterNode struct {
	matcher elementMatcher
}

var _ Node = (*ArrayFilterNode)(nil)

// Init classifies the removal condition and builds the matcher:
//
//  1. a document whose first field is not an operator keyword matches
//     sub-documents structurally;
//  2. any other document, and any regex, is matched through the wrapped
//     form;
//  3. everything else (scalars and arrays) is matched by exact equality.
//
// Rule 1 wins over rule 2 for plain documents, so {field: value} stays a
// structural condition while {$gt: 5} falls through to the wrapped form.
// Malformed conditions fail here with a parse error.
func (n *ArrayFilterNode) Init(condition any, coll collation.Collator) error {
	switch c := normalizeCondition(condition).(type) {
	case bson.D:
		if len(c) == 0 || !matcher.IsQueryOperator(c[0].Key) {
			m, err := newObjectMatcher(c, coll)
			if err != nil {
				return err
			}
			n.matcher = m
			return nil
		}
		m, err := newWrappedObjectMatcher(c, coll)
		if err != nil {
			return err
		}
		n.matcher = m
		return nil
	case primitive.Regex:
		m, err := newWrappedObjectMatcher(c, coll)
		if err != nil {
			return err
		}
		n.matcher = m
		return nil
	default:
		n.matcher = &equalityMatcher{value: c, coll: coll}
		return nil
	}
}

// SetCollator rebinds the matcher's collator. Not safe to race against an
// in-flight Apply on the same node.
func (n *ArrayFilterNode) SetCollator(coll collation.Collator) {
	if n.matcher != nil {
		n.matcher.setCollator(coll)
	}
}

// Clone returns an independent node; rebinding one clone's collator leaves
// the other untouched.
func (n *ArrayFilterNode) Clone() Node {
	c := &ArrayFilterNode{}
	if n.matcher != nil {
		c.matcher = n.matcher.clone()
	}
	return c
}

// Apply removes matching elements from the array at p.Element and reports
// whether anything changed. Side effects follow what was actually mutated:
// no removal means no index check and no log entry.
func (n *ArrayFilterNode) Apply(p ApplyParams) (ApplyResult, error) {
	var result ApplyResult

	if !p.PathToCreate.Empty() {
		// The walk stopped short of the target. This operator never
		// creates structure, so this is a no-op, unless those components
		// could not have been created at all.
		if err := CheckViability(p.Element, p.PathToCreate, p.PathTaken); err != nil {
			return result, err
		}
		result.Noop = true
		return result, nil
	}

	if p.Element.Kind() != document.KindArray {
		return result, model.BadValuef("cannot apply array filter to a non-array value at %q", p.PathTaken.Dotted())
	}

	numRemoved := 0
	cursor := p.Element.LeftChild()
	for cursor.Ok() {
		// Capture the next element first: removing cursor invalidates
		// cursor's own sibling links, but not a handle taken beforehand.
		next := cursor.RightSibling()
		if n.matcher.match(cursor) {
			if err := cursor.Remove(); err != nil {
				return result, model.Internalf("could not remove array element: %v", err)
			}
			numRemoved++
		}
		cursor = next
	}

	if numRemoved == 0 {
		result.Noop = true
		return result, nil // skip the index check and logging steps
	}

	if p.IndexData != nil && p.IndexData.MightBeIndexed(p.PathTaken.Dotted()) {
		result.IndexesAffected = true
	}

	if p.LogBuilder != nil {
		// Log the change as a full replacement of the array with its
		// surviving elements, not as per-element deletions.
		tree := p.LogBuilder.Tree()
		logElement := tree.MakeElementArray(p.PathTaken.Dotted())
		for cursor := p.Element.LeftChild(); cursor.Ok(); cursor = cursor.RightSibling() {
			copied, err := tree.MakeElementValue("", cursor.ExportValue())
			if err != nil {
				return result, model.Internalf("could not create copy element: %v", err)
			}
			if err := logElement.PushBack(copied); err != nil {
				return result, model.Internalf("could not append log element: %v", err)
			}
		}
		if err := p.LogBuilder.AddToSets(logElement); err != nil {
			return result, err
		}
	}

	return result, nil
}

// normalizeCondition maps the unordered document forms onto bson.D so
// classification sees one document type.
func normalizeCondition(condition any) any {
	switch c := condition.(type) {
	case bson.M:
		return mapConditionToD(map[string]any(c))
	case map[string]any:
		return mapConditionToD(c)
	default:
		return condition
	}
}

func mapConditionToD(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Operator keys sort ahead of plain fields, which keeps classification
	// stable for map-typed conditions.
	sort.Strings(keys)
	d := make(bson.D, 0, len(m))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}
