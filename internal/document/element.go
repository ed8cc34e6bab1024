package document

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stratumdb/stratum/pkg/model"
)

// Element is a handle to one node of a Tree. The zero Element is invalid.
// Handles are cheap to copy and remain valid across removals of other
// nodes; only removal of the referenced node (or one of its ancestors)
// invalidates a handle.
type Element struct {
	tree *Tree
	idx  int
}

// Ok reports whether the handle refers to a live node.
func (e Element) Ok() bool {
	return e.tree != nil && e.idx >= 0 && e.idx < len(e.tree.nodes) && e.tree.nodes[e.idx].alive
}

// Kind returns the node's kind, or KindInvalid for a dead handle.
func (e Element) Kind() Kind {
	if !e.Ok() {
		return KindInvalid
	}
	return e.tree.nodes[e.idx].kind
}

// FieldName returns the node's field name; array members have an empty one.
func (e Element) FieldName() string {
	if !e.Ok() {
		return ""
	}
	return e.tree.nodes[e.idx].field
}

// Value returns the scalar payload of a KindScalar node, nil otherwise.
func (e Element) Value() any {
	if !e.Ok() {
		return nil
	}
	return e.tree.nodes[e.idx].value
}

// Parent returns the parent handle, invalid for detached nodes and the root.
func (e Element) Parent() Element {
	if !e.Ok() {
		return Element{}
	}
	return e.handle(e.tree.nodes[e.idx].parent)
}

// LeftChild returns the first child of a container node.
func (e Element) LeftChild() Element {
	if !e.Ok() {
		return Element{}
	}
	return e.handle(e.tree.nodes[e.idx].firstChild)
}

// RightSibling returns the next sibling in document order.
func (e Element) RightSibling() Element {
	if !e.Ok() {
		return Element{}
	}
	return e.handle(e.tree.nodes[e.idx].next)
}

// FindChild returns the direct child with the given field name.
func (e Element) FindChild(field string) Element {
	for c := e.LeftChild(); c.Ok(); c = c.RightSibling() {
		if c.FieldName() == field {
			return c
		}
	}
	return Element{}
}

// ChildAt returns the i-th direct child.
func (e Element) ChildAt(i int) Element {
	c := e.LeftChild()
	for ; c.Ok() && i > 0; c = c.RightSibling() {
		i--
	}
	if i > 0 {
		return Element{}
	}
	return c
}

// PushBack appends a detached node as the last child of a container.
func (e Element) PushBack(child Element) error {
	if !e.Ok() || !child.Ok() {
		return model.Internalf("push back on a dead element")
	}
	if e.tree != child.tree {
		return model.Internalf("push back across trees")
	}
	if k := e.Kind(); k != KindDocument && k != KindArray {
		return model.Internalf("push back on a %s element", k)
	}
	if child.tree.nodes[child.idx].parent != npos {
		return model.Internalf("push back of an attached element")
	}

	nodes := e.tree.nodes
	cn := &nodes[child.idx]
	pn := &nodes[e.idx]
	cn.parent = e.idx
	cn.prev = pn.lastChild
	cn.next = npos
	if pn.lastChild != npos {
		nodes[pn.lastChild].next = child.idx
	} else {
		pn.firstChild = child.idx
	}
	pn.lastChild = child.idx
	return nil
}

// Remove unlinks the node from its parent and marks it, with its whole
// subtree, dead. Sibling handles captured before the call stay valid; the
// removed handle must not be used afterwards.
func (e Element) Remove() error {
	if !e.Ok() {
		return model.Internalf("remove of a dead element")
	}
	n := &e.tree.nodes[e.idx]
	if n.parent == npos {
		return model.Internalf("remove of a detached element")
	}

	nodes := e.tree.nodes
	parent := &nodes[n.parent]
	if n.prev != npos {
		nodes[n.prev].next = n.next
	} else {
		parent.firstChild = n.next
	}
	if n.next != npos {
		nodes[n.next].prev = n.prev
	} else {
		parent.lastChild = n.prev
	}

	e.killSubtree(e.idx)
	return nil
}

func (e Element) killSubtree(idx int) {
	stack := []int{idx}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &e.tree.nodes[i]
		n.alive = false
		for c := n.firstChild; c != npos; c = e.tree.nodes[c].next {
			stack = append(stack, c)
		}
		n.parent, n.prev, n.next = npos, npos, npos
	}
}

// CountChildren returns the number of direct children.
func (e Element) CountChildren() int {
	n := 0
	for c := e.LeftChild(); c.Ok(); c = c.RightSibling() {
		n++
	}
	return n
}

// ExportValue reconstructs the decoded value rooted at this element:
// bson.D for documents, bson.A for arrays, the scalar payload otherwise.
func (e Element) ExportValue() any {
	switch e.Kind() {
	case KindDocument:
		doc := bson.D{}
		for c := e.LeftChild(); c.Ok(); c = c.RightSibling() {
			doc = append(doc, bson.E{Key: c.FieldName(), Value: c.ExportValue()})
		}
		return doc
	case KindArray:
		arr := bson.A{}
		for c := e.LeftChild(); c.Ok(); c = c.RightSibling() {
			arr = append(arr, c.ExportValue())
		}
		return arr
	default:
		return e.Value()
	}
}

func (e Element) handle(idx int) Element {
	if idx == npos {
		return Element{}
	}
	return Element{tree: e.tree, idx: idx}
}

// FindPath descends from root along path parts, matching document fields by
// name and array members by decimal index. It returns the deepest element
// reached and the number of parts consumed; consumed < len(parts) means the
// remainder of the path does not exist.
func FindPath(root Element, parts []string) (Element, int) {
	cur := root
	for i, part := range parts {
		var next Element
		switch cur.Kind() {
		case KindDocument:
			next = cur.FindChild(part)
		case KindArray:
			idx, ok := parseArrayIndex(part)
			if !ok {
				return cur, i
			}
			next = cur.ChildAt(idx)
		default:
			return cur, i
		}
		if !next.Ok() {
			return cur, i
		}
		cur = next
	}
	return cur, len(parts)
}

func parseArrayIndex(part string) (int, bool) {
	if part == "" {
		return 0, false
	}
	n := 0
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	return n, true
}
