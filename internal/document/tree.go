// Package document implements the mutable, in-memory document tree the
// update-execution engine operates on. Nodes live in an arena owned by the
// Tree; an Element is a cheap index handle into that arena. Removing an
// element unlinks it and marks its slot dead without shifting other slots,
// so handles captured before a removal stay valid afterwards.
package document

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/stratumdb/stratum/pkg/model"
)

// Kind classifies a tree node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindDocument
	KindArray
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	}
	return "invalid"
}

const npos = -1

type node struct {
	field string
	kind  Kind
	value any // scalar payload, nil for containers

	parent     int
	firstChild int
	lastChild  int
	prev       int
	next       int

	alive bool
}

// Tree owns the node arena for one document.
type Tree struct {
	nodes []node
	root  int
}

// NewTree returns a tree holding a single empty root document.
func NewTree() *Tree {
	t := &Tree{}
	t.root = t.alloc("", KindDocument, nil)
	return t
}

// NewDocument builds a tree from a decoded document value. Accepted forms
// are bson.D, bson.M and map[string]any; map forms are ordered by key so
// building is deterministic.
func NewDocument(doc any) (*Tree, error) {
	t := NewTree()
	root := t.Root()
	switch d := doc.(type) {
	case bson.D:
		for _, el := range d {
			if err := appendValue(t, root, el.Key, el.Value); err != nil {
				return nil, err
			}
		}
	case bson.M:
		if err := appendOrderedMap(t, root, map[string]any(d)); err != nil {
			return nil, err
		}
	case map[string]any:
		if err := appendOrderedMap(t, root, d); err != nil {
			return nil, err
		}
	case model.Document:
		if err := appendOrderedMap(t, root, map[string]any(d)); err != nil {
			return nil, err
		}
	case nil:
	default:
		return nil, model.BadValuef("cannot build a document tree from %T", doc)
	}
	return t, nil
}

// Root returns the handle of the root document.
func (t *Tree) Root() Element {
	return Element{tree: t, idx: t.root}
}

// MakeElementDocument allocates a detached empty document node.
func (t *Tree) MakeElementDocument(field string) Element {
	return Element{tree: t, idx: t.alloc(field, KindDocument, nil)}
}

// MakeElementArray allocates a detached empty array node.
func (t *Tree) MakeElementArray(field string) Element {
	return Element{tree: t, idx: t.alloc(field, KindArray, nil)}
}

// MakeElementValue allocates a detached node holding an arbitrary decoded
// value, recursing into documents and arrays.
func (t *Tree) MakeElementValue(field string, value any) (Element, error) {
	switch v := value.(type) {
	case bson.D:
		el := t.MakeElementDocument(field)
		for _, sub := range v {
			if err := appendValue(t, el, sub.Key, sub.Value); err != nil {
				return Element{}, err
			}
		}
		return el, nil
	case bson.M:
		el := t.MakeElementDocument(field)
		if err := appendOrderedMap(t, el, map[string]any(v)); err != nil {
			return Element{}, err
		}
		return el, nil
	case map[string]any:
		el := t.MakeElementDocument(field)
		if err := appendOrderedMap(t, el, v); err != nil {
			return Element{}, err
		}
		return el, nil
	case model.Document:
		el := t.MakeElementDocument(field)
		if err := appendOrderedMap(t, el, map[string]any(v)); err != nil {
			return Element{}, err
		}
		return el, nil
	case bson.A:
		return t.makeArrayOf(field, v)
	case []any:
		return t.makeArrayOf(field, v)
	default:
		return Element{tree: t, idx: t.alloc(field, KindScalar, value)}, nil
	}
}

func (t *Tree) makeArrayOf(field string, items []any) (Element, error) {
	el := t.MakeElementArray(field)
	for _, item := range items {
		if err := appendValue(t, el, "", item); err != nil {
			return Element{}, err
		}
	}
	return el, nil
}

func (t *Tree) alloc(field string, kind Kind, value any) int {
	t.nodes = append(t.nodes, node{
		field:      field,
		kind:       kind,
		value:      value,
		parent:     npos,
		firstChild: npos,
		lastChild:  npos,
		prev:       npos,
		next:       npos,
		alive:      true,
	})
	return len(t.nodes) - 1
}

func appendValue(t *Tree, parent Element, field string, value any) error {
	child, err := t.MakeElementValue(field, value)
	if err != nil {
		return err
	}
	return parent.PushBack(child)
}

func appendOrderedMap(t *Tree, parent Element, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := appendValue(t, parent, k, m[k]); err != nil {
			return err
		}
	}
	return nil
}
