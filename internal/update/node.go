// Package update implements the in-place update-execution engine: leaf
// operator nodes applied to a mutable document tree, with index-impact and
// replay-log bookkeeping.
package update

import (
	"fmt"

	"github.com/stratumdb/stratum/internal/collation"
	"github.com/stratumdb/stratum/internal/document"
	"github.com/stratumdb/stratum/pkg/model"
)

// ApplyParams carries everything a leaf node needs for one application.
// MatchedField, FromReplication and ValidateForStorage are part of the
// uniform contract; individual operators may ignore them.
type ApplyParams struct {
	// Element is the element the path walk reached.
	Element document.Element
	// PathToCreate holds the path components that could not be traversed
	// because they do not exist yet; empty when Element is the target.
	PathToCreate *FieldRef
	// PathTaken is the dotted path from the root to Element.
	PathTaken *FieldRef
	// MatchedField is the array filter match for positional updates.
	MatchedField string
	// FromReplication marks updates replayed from the replication log.
	FromReplication bool
	// ValidateForStorage requests full storage validation of new values.
	ValidateForStorage bool
	// ImmutablePaths are the paths this update must not modify.
	ImmutablePaths *FieldRefSet
	// IndexData, when non-nil, is consulted to decide IndexesAffected.
	IndexData *IndexData
	// LogBuilder, when non-nil, receives the replay-log entry.
	LogBuilder *LogBuilder
}

// ApplyResult reports what one application did.
type ApplyResult struct {
	// IndexesAffected is set when the mutation may touch an indexed path.
	IndexesAffected bool
	// Noop is set when the document was left untouched.
	Noop bool
}

// Node is one leaf operator of an update expression. A node is initialized
// once from its operator argument and may then be applied to any number of
// documents.
type Node interface {
	// Init builds the node from the user-supplied operator argument.
	// Malformed arguments fail here, before any document is touched.
	Init(condition any, coll collation.Collator) error
	// Apply executes the operator against one positioned element.
	Apply(p ApplyParams) (ApplyResult, error)
	// SetCollator rebinds the node's string-comparison rules.
	SetCollator(coll collation.Collator)
	// Clone returns an independent copy of the initialized node.
	Clone() Node
}

// CheckViability verifies that the missing suffix pathToCreate could in
// principle be created under element: fields can be created in documents,
// and positions in arrays. Anything else means the update was positioned
// through a non-container value, which is a fatal path error.
func CheckViability(element document.Element, pathToCreate, pathTaken *FieldRef) error {
	switch element.Kind() {
	case document.KindDocument:
		return nil
	case document.KindArray:
		if isAllDigits(pathToCreate.Part(0)) {
			return nil
		}
		return fmt.Errorf("%w: cannot create field %q in the array at %q",
			model.ErrPathNotViable, pathToCreate.Part(0), pathTaken.Dotted())
	default:
		return fmt.Errorf("%w: cannot create field %q in the %s at %q",
			model.ErrPathNotViable, pathToCreate.Part(0), element.Kind(), pathTaken.Dotted())
	}
}
