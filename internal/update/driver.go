package update

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stratumdb/stratum/internal/collation"
	"github.com/stratumdb/stratum/internal/document"
	"github.com/stratumdb/stratum/pkg/model"
)

// Driver turns update documents into positioned operator nodes and applies
// them to documents. A parsed Update is reusable across documents.
type Driver struct {
	coll   collation.Collator
	logger *slog.Logger
}

// NewDriver returns a driver whose operators compare strings under coll.
func NewDriver(coll collation.Collator) *Driver {
	return &Driver{coll: coll, logger: slog.Default()}
}

type positionedNode struct {
	path *FieldRef
	node Node
}

// Update is a parsed update expression.
type Update struct {
	ops []positionedNode
}

// SetCollator rebinds every operator in the update. Not safe to race
// against an in-flight Apply.
func (u *Update) SetCollator(coll collation.Collator) {
	for _, op := range u.ops {
		op.node.SetCollator(coll)
	}
}

// Parse validates an update document of the shape
// {"$pull": {path: condition, ...}} and initializes one ArrayFilterNode per
// path. Other update operators are rejected.
func (d *Driver) Parse(updateDoc bson.D) (*Update, error) {
	if len(updateDoc) == 0 {
		return nil, model.FailedToParsef("update document must not be empty")
	}

	u := &Update{}
	for _, el := range updateDoc {
		if !strings.HasPrefix(el.Key, "$") {
			return nil, model.FailedToParsef("unknown modifier %q; update expressions must use operators", el.Key)
		}
		if el.Key != "$pull" {
			return nil, fmt.Errorf("%w: %s", model.ErrNotSupported, el.Key)
		}

		args := toDocument(el.Value)
		if args == nil {
			return nil, model.FailedToParsef("$pull argument must be an object")
		}
		if len(args) == 0 {
			return nil, model.FailedToParsef("$pull argument must not be empty")
		}
		for _, arg := range args {
			if arg.Key == "" {
				return nil, model.FailedToParsef("$pull path must not be empty")
			}
			node := &ArrayFilterNode{}
			if err := node.Init(arg.Value, d.coll); err != nil {
				return nil, fmt.Errorf("invalid $pull condition for %q: %w", arg.Key, err)
			}
			u.ops = append(u.ops, positionedNode{path: NewFieldRef(arg.Key), node: node})
		}
	}
	return u, nil
}

// ApplyOptions configures one application of an update.
type ApplyOptions struct {
	// IndexData, when non-nil, enables index-impact tracking.
	IndexData *IndexData
	// ImmutablePaths are rejected before any operator runs.
	ImmutablePaths *FieldRefSet
	// FromReplication marks replayed updates.
	FromReplication bool
	// LogEntry requests a replay-log entry for the mutation.
	LogEntry bool
}

// OplogEntry is one replayable record of a completed mutation.
type OplogEntry struct {
	ID        string    `bson:"id" json:"id"`
	Timestamp time.Time `bson:"ts" json:"ts"`
	Op        bson.D    `bson:"op" json:"op"`
}

// Result reports the outcome of applying an update to one document.
type Result struct {
	// Document is the post-update document.
	Document bson.D
	// Noop is true when no operator changed anything.
	Noop bool
	// IndexesAffected is true when any mutation may touch an indexed path.
	IndexesAffected bool
	// Oplog is the replay entry; nil for no-ops and when LogEntry is off.
	Oplog *OplogEntry
}

// Apply runs the update against one decoded document and returns the
// mutated document plus the side-effect report.
func (d *Driver) Apply(u *Update, doc any, opts ApplyOptions) (*Result, error) {
	tree, err := document.NewDocument(doc)
	if err != nil {
		return nil, err
	}

	var logBuilder *LogBuilder
	if opts.LogEntry {
		logBuilder = NewLogBuilder()
	}

	result := &Result{Noop: true}
	for _, op := range u.ops {
		if opts.ImmutablePaths.Conflicts(op.path) {
			return nil, fmt.Errorf("%w: %s", model.ErrImmutableField, op.path.Dotted())
		}

		element, consumed := document.FindPath(tree.Root(), op.path.Parts())
		r, err := op.node.Apply(ApplyParams{
			Element:            element,
			PathToCreate:       fieldRefOf(op.path.Parts()[consumed:]),
			PathTaken:          fieldRefOf(op.path.Parts()[:consumed]),
			FromReplication:    opts.FromReplication,
			ValidateForStorage: !opts.FromReplication,
			ImmutablePaths:     opts.ImmutablePaths,
			IndexData:          opts.IndexData,
			LogBuilder:         logBuilder,
		})
		if err != nil {
			return nil, err
		}
		if !r.Noop {
			result.Noop = false
		}
		if r.IndexesAffected {
			result.IndexesAffected = true
		}
		d.logger.Debug("applied update operator",
			"path", op.path.Dotted(),
			"noop", r.Noop,
			"indexes_affected", r.IndexesAffected,
		)
	}

	result.Document = tree.Root().ExportValue().(bson.D)
	if !result.Noop && logBuilder != nil && !logBuilder.Empty() {
		result.Oplog = &OplogEntry{
			ID:        uuid.NewString(),
			Timestamp: time.Now().UTC(),
			Op:        logBuilder.Document(),
		}
	}
	return result, nil
}

func toDocument(v any) bson.D {
	switch t := v.(type) {
	case bson.D:
		return t
	case bson.M:
		return mapConditionToD(map[string]any(t))
	case map[string]any:
		return mapConditionToD(t)
	}
	return nil
}
