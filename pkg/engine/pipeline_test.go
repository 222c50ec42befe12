package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiselgen/chisel/pkg/engine"
)

func TestPipelineCollectionAddAndGet(t *testing.T) {
	t.Parallel()

	coll := engine.NewPipelineCollection()

	require.NoError(t, coll.Add(&engine.Pipeline{Name: "Content"}))
	require.NoError(t, coll.Add(&engine.Pipeline{Name: "feed"}))

	got, ok := coll.Get("content")
	require.True(t, ok)
	assert.Equal(t, "Content", got.Name)

	_, ok = coll.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Content", "feed"}, coll.Names())
	assert.Equal(t, 2, coll.Len())
}

func TestPipelineCollectionRejectsDuplicates(t *testing.T) {
	t.Parallel()

	coll := engine.NewPipelineCollection()

	require.NoError(t, coll.Add(&engine.Pipeline{Name: "content"}))

	err := coll.Add(&engine.Pipeline{Name: "CONTENT"})
	require.ErrorIs(t, err, engine.ErrDuplicatePipeline)
}

func TestPipelineCollectionRejectsEmptyName(t *testing.T) {
	t.Parallel()

	coll := engine.NewPipelineCollection()

	err := coll.Add(&engine.Pipeline{})
	require.ErrorIs(t, err, engine.ErrPipelineNameEmpty)
}

func TestPipelineCollectionRejectsIsolatedWithDependencies(t *testing.T) {
	t.Parallel()

	coll := engine.NewPipelineCollection()

	err := coll.Add(&engine.Pipeline{
		Name:         "assets",
		Isolated:     true,
		Dependencies: []string{"content"},
	})
	require.ErrorIs(t, err, engine.ErrIsolatedWithDependencies)
}
