package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stratumdb/stratum/pkg/model"
)

func TestLogBuilder_AddToSets(t *testing.T) {
	b := NewLogBuilder()
	assert.True(t, b.Empty())
	assert.Equal(t, bson.D{}, b.Document())

	arr := b.Tree().MakeElementArray("scores")
	item, err := b.Tree().MakeElementValue("", 1)
	require.NoError(t, err)
	require.NoError(t, arr.PushBack(item))
	require.NoError(t, b.AddToSets(arr))

	scalar, err := b.Tree().MakeElementValue("name", "x")
	require.NoError(t, err)
	require.NoError(t, b.AddToSets(scalar))

	assert.False(t, b.Empty())
	assert.Equal(t, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "scores", Value: bson.A{1}},
			{Key: "name", Value: "x"},
		}},
	}, b.Document())
}

func TestLogBuilder_RejectsForeignElements(t *testing.T) {
	b := NewLogBuilder()
	other := NewLogBuilder()

	el, err := other.Tree().MakeElementValue("a", 1)
	require.NoError(t, err)

	err = b.AddToSets(el)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInternal)
}
