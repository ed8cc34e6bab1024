package update

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stratumdb/stratum/internal/document"
	"github.com/stratumdb/stratum/pkg/model"
)

// LogBuilder accumulates the replay-log entry for one update: a document of
// the shape {"$set": {path: value, ...}} that, replayed elsewhere, would
// reproduce the mutation. Elements appended to it must be created on the
// builder's own tree.
type LogBuilder struct {
	tree *document.Tree
	sets document.Element
}

// NewLogBuilder returns a builder with an empty output document.
func NewLogBuilder() *LogBuilder {
	return &LogBuilder{tree: document.NewTree()}
}

// Tree returns the builder's output tree; operators use it to construct the
// elements they append.
func (b *LogBuilder) Tree() *document.Tree {
	return b.tree
}

// AddToSets appends el under the "$set" section, creating the section on
// first use. A failure here means the element was built on the wrong tree
// or already attached; both are broken invariants, not bad input.
func (b *LogBuilder) AddToSets(el document.Element) error {
	if !b.sets.Ok() {
		section := b.tree.MakeElementDocument("$set")
		if err := b.tree.Root().PushBack(section); err != nil {
			return model.Internalf("could not create $set section: %v", err)
		}
		b.sets = section
	}
	if err := b.sets.PushBack(el); err != nil {
		return model.Internalf("could not append to $set section: %v", err)
	}
	return nil
}

// Document exports the accumulated entry. An update that changed nothing
// exports an empty document.
func (b *LogBuilder) Document() bson.D {
	return b.tree.Root().ExportValue().(bson.D)
}

// Empty reports whether nothing has been logged.
func (b *LogBuilder) Empty() bool {
	return !b.sets.Ok() || b.sets.CountChildren() == 0
}
