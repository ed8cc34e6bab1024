package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stratumdb/stratum/pkg/model"
)

func TestDriver_ApplyPull(t *testing.T) {
	driver := NewDriver(nil)
	parsed, err := driver.Parse(bson.D{
		{Key: "$pull", Value: bson.D{
			{Key: "scores", Value: 3},
			{Key: "tags", Value: bson.D{{Key: "$in", Value: bson.A{"old"}}}},
		}},
	})
	require.NoError(t, err)

	indexData := NewIndexData()
	indexData.AddPath("scores")

	result, err := driver.Apply(parsed, bson.D{
		{Key: "scores", Value: bson.A{1, 2, 3, 4}},
		{Key: "tags", Value: bson.A{"old", "new"}},
	}, ApplyOptions{IndexData: indexData, LogEntry: true})
	require.NoError(t, err)

	assert.False(t, result.Noop)
	assert.True(t, result.IndexesAffected)
	assert.Equal(t, bson.D{
		{Key: "scores", Value: bson.A{1, 2, 4}},
		{Key: "tags", Value: bson.A{"new"}},
	}, result.Document)

	require.NotNil(t, result.Oplog)
	assert.NotEmpty(t, result.Oplog.ID)
	assert.False(t, result.Oplog.Timestamp.IsZero())
	assert.Equal(t, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "scores", Value: bson.A{1, 2, 4}},
			{Key: "tags", Value: bson.A{"new"}},
		}},
	}, result.Oplog.Op)
}

func TestDriver_ApplyNoop(t *testing.T) {
	driver := NewDriver(nil)
	parsed, err := driver.Parse(bson.D{
		{Key: "$pull", Value: bson.D{{Key: "scores", Value: 99}}},
	})
	require.NoError(t, err)

	doc := bson.D{{Key: "scores", Value: bson.A{1, 2}}}
	result, err := driver.Apply(parsed, doc, ApplyOptions{LogEntry: true})
	require.NoError(t, err)

	assert.True(t, result.Noop)
	assert.Nil(t, result.Oplog, "no-ops never produce replay entries")
	assert.Equal(t, doc, result.Document)
}

func TestDriver_ApplyIsRepeatable(t *testing.T) {
	driver := NewDriver(nil)
	parsed, err := driver.Parse(bson.D{
		{Key: "$pull", Value: bson.D{{Key: "n", Value: bson.D{{Key: "$lt", Value: 0}}}}},
	})
	require.NoError(t, err)

	first, err := driver.Apply(parsed, bson.D{{Key: "n", Value: bson.A{-1, 1}}}, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "n", Value: bson.A{1}}}, first.Document)

	second, err := driver.Apply(parsed, bson.D{{Key: "n", Value: bson.A{-5, 5}}}, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "n", Value: bson.A{5}}}, second.Document)
}

func TestDriver_ImmutablePath(t *testing.T) {
	driver := NewDriver(nil)
	parsed, err := driver.Parse(bson.D{
		{Key: "$pull", Value: bson.D{{Key: "meta.tags", Value: "x"}}},
	})
	require.NoError(t, err)

	_, err = driver.Apply(parsed,
		bson.D{{Key: "meta", Value: bson.D{{Key: "tags", Value: bson.A{"x"}}}}},
		ApplyOptions{ImmutablePaths: NewFieldRefSet("meta")})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrImmutableField)
}

func TestDriver_ParseErrors(t *testing.T) {
	driver := NewDriver(nil)

	tests := []struct {
		name    string
		update  bson.D
		wantErr error
	}{
		{"empty update", bson.D{}, model.ErrFailedToParse},
		{"plain field", bson.D{{Key: "a", Value: 1}}, model.ErrFailedToParse},
		{"unsupported operator", bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: 1}}}}, model.ErrNotSupported},
		{"pull needs object", bson.D{{Key: "$pull", Value: 5}}, model.ErrFailedToParse},
		{"pull needs nonempty object", bson.D{{Key: "$pull", Value: bson.D{}}}, model.ErrFailedToParse},
		{"empty path", bson.D{{Key: "$pull", Value: bson.D{{Key: "", Value: 1}}}}, model.ErrFailedToParse},
		{"malformed condition", bson.D{{Key: "$pull", Value: bson.D{{Key: "a", Value: bson.D{{Key: "$where", Value: "x"}}}}}}, model.ErrFailedToParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := driver.Parse(tt.update)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDriver_ApplyModelDocument(t *testing.T) {
	driver := NewDriver(nil)
	parsed, err := driver.Parse(bson.D{
		{Key: "$pull", Value: bson.D{{Key: "scores", Value: 2}}},
	})
	require.NoError(t, err)

	doc := model.Document{"id": "doc-1", "scores": []any{1, 2, 3}}
	result, err := driver.Apply(parsed, doc, ApplyOptions{})
	require.NoError(t, err)
	assert.False(t, result.Noop)
	assert.Equal(t, bson.D{
		{Key: "id", Value: "doc-1"},
		{Key: "scores", Value: bson.A{1, 3}},
	}, result.Document)
}
