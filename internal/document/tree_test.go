package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewDocument_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  any
		want bson.D
	}{
		{
			name: "flat document",
			doc:  bson.D{{Key: "a", Value: 1}, {Key: "b", Value: "x"}},
			want: bson.D{{Key: "a", Value: 1}, {Key: "b", Value: "x"}},
		},
		{
			name: "nested document and array",
			doc: bson.D{
				{Key: "a", Value: bson.D{{Key: "b", Value: bson.A{1, 2, 3}}}},
				{Key: "c", Value: nil},
			},
			want: bson.D{
				{Key: "a", Value: bson.D{{Key: "b", Value: bson.A{1, 2, 3}}}},
				{Key: "c", Value: nil},
			},
		},
		{
			name: "map form is ordered by key",
			doc:  map[string]any{"b": 2, "a": 1},
			want: bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 2}},
		},
		{
			name: "empty",
			doc:  bson.D{},
			want: bson.D{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := NewDocument(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tree.Root().ExportValue())
		})
	}
}

func TestNewDocument_RejectsNonDocument(t *testing.T) {
	_, err := NewDocument(42)
	assert.Error(t, err)
}

func TestElement_Navigation(t *testing.T) {
	tree, err := NewDocument(bson.D{
		{Key: "arr", Value: bson.A{1, "two", bson.D{{Key: "x", Value: true}}}},
	})
	require.NoError(t, err)

	arr := tree.Root().FindChild("arr")
	require.True(t, arr.Ok())
	assert.Equal(t, KindArray, arr.Kind())
	assert.Equal(t, 3, arr.CountChildren())

	first := arr.LeftChild()
	require.True(t, first.Ok())
	assert.Equal(t, KindScalar, first.Kind())
	assert.Equal(t, 1, first.Value())
	assert.Equal(t, "", first.FieldName())

	second := first.RightSibling()
	assert.Equal(t, "two", second.Value())

	third := second.RightSibling()
	assert.Equal(t, KindDocument, third.Kind())
	assert.False(t, third.RightSibling().Ok())

	assert.Equal(t, arr, second.Parent())
}

func TestElement_RemoveKeepsCapturedSiblings(t *testing.T) {
	tree, err := NewDocument(bson.D{{Key: "arr", Value: bson.A{10, 20, 30}}})
	require.NoError(t, err)
	arr := tree.Root().FindChild("arr")

	cursor := arr.LeftChild()
	next := cursor.RightSibling() // capture before removing cursor
	require.NoError(t, cursor.Remove())

	assert.False(t, cursor.Ok())
	require.True(t, next.Ok())
	assert.Equal(t, 20, next.Value())

	assert.Equal(t, bson.A{20, 30}, arr.ExportValue())
	assert.Equal(t, 20, arr.LeftChild().Value())
}

func TestElement_RemoveLastAndAll(t *testing.T) {
	tree, err := NewDocument(bson.D{{Key: "arr", Value: bson.A{1, 2}}})
	require.NoError(t, err)
	arr := tree.Root().FindChild("arr")

	last := arr.ChildAt(1)
	require.NoError(t, last.Remove())
	assert.Equal(t, bson.A{1}, arr.ExportValue())

	require.NoError(t, arr.LeftChild().Remove())
	assert.Equal(t, bson.A{}, arr.ExportValue())
	assert.False(t, arr.LeftChild().Ok())
	assert.Equal(t, 0, arr.CountChildren())
}

func TestElement_RemoveKillsSubtree(t *testing.T) {
	tree, err := NewDocument(bson.D{{Key: "a", Value: bson.D{{Key: "b", Value: 1}}}})
	require.NoError(t, err)

	a := tree.Root().FindChild("a")
	b := a.FindChild("b")
	require.NoError(t, a.Remove())

	assert.False(t, a.Ok())
	assert.False(t, b.Ok())
	assert.Equal(t, bson.D{}, tree.Root().ExportValue())
}

func TestElement_RemoveErrors(t *testing.T) {
	tree, err := NewDocument(bson.D{{Key: "a", Value: 1}})
	require.NoError(t, err)

	assert.Error(t, tree.Root().Remove(), "root is detached")
	assert.Error(t, Element{}.Remove(), "zero element is dead")

	a := tree.Root().FindChild("a")
	require.NoError(t, a.Remove())
	assert.Error(t, a.Remove(), "double remove")
}

func TestElement_PushBack(t *testing.T) {
	tree := NewTree()
	arr := tree.MakeElementArray("items")
	require.NoError(t, tree.Root().PushBack(arr))

	el, err := tree.MakeElementValue("", bson.D{{Key: "n", Value: 1}})
	require.NoError(t, err)
	require.NoError(t, arr.PushBack(el))

	assert.Equal(t, bson.D{
		{Key: "items", Value: bson.A{bson.D{{Key: "n", Value: 1}}}},
	}, tree.Root().ExportValue())

	// attached elements cannot be pushed again
	assert.Error(t, tree.Root().PushBack(el))

	// scalars take no children
	scalar, err := tree.MakeElementValue("s", 1)
	require.NoError(t, err)
	other, err := tree.MakeElementValue("x", 2)
	require.NoError(t, err)
	assert.Error(t, scalar.PushBack(other))

	// no cross-tree pushes
	foreign := NewTree().MakeElementArray("f")
	assert.Error(t, tree.Root().PushBack(foreign))
}

func TestFindPath(t *testing.T) {
	tree, err := NewDocument(bson.D{
		{Key: "a", Value: bson.D{
			{Key: "b", Value: bson.A{bson.D{{Key: "c", Value: 7}}}},
		}},
		{Key: "s", Value: "leaf"},
	})
	require.NoError(t, err)
	root := tree.Root()

	tests := []struct {
		name         string
		parts        []string
		wantConsumed int
		wantKind     Kind
	}{
		{"full document path", []string{"a", "b"}, 2, KindArray},
		{"through array index", []string{"a", "b", "0", "c"}, 4, KindScalar},
		{"missing field", []string{"a", "z"}, 1, KindDocument},
		{"non-numeric array part", []string{"a", "b", "x"}, 2, KindArray},
		{"index out of range", []string{"a", "b", "5"}, 2, KindArray},
		{"through scalar", []string{"s", "x"}, 1, KindScalar},
		{"empty path", nil, 0, KindDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, consumed := FindPath(root, tt.parts)
			assert.Equal(t, tt.wantConsumed, consumed)
			assert.Equal(t, tt.wantKind, el.Kind())
		})
	}
}
