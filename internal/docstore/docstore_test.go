package docstore_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiselgen/chisel/internal/docstore"
)

func TestStoreSetAndGetCaseInsensitive(t *testing.T) {
	t.Parallel()

	store := docstore.New[string]()
	store.Set("Content", []string{"d1"})

	docs, ok := store.Get("CONTENT")
	require.True(t, ok)
	assert.Equal(t, []string{"d1"}, docs)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStoreOverwrites(t *testing.T) {
	t.Parallel()

	store := docstore.New[string]()
	store.Set("content", []string{"old"})
	store.Set("CONTENT", []string{"new"})

	docs, _ := store.Get("content")
	assert.Equal(t, []string{"new"}, docs)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{"CONTENT"}, store.Names())
}

func TestStoreClear(t *testing.T) {
	t.Parallel()

	store := docstore.New[string]()
	store.Set("a", nil)
	store.Set("b", nil)

	store.Clear()

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.Names())
}

func TestStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := docstore.New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Set("pipeline", []int{n})
			store.Get("pipeline")
			store.Len()
		}(i)
	}
	wg.Wait()

	docs, ok := store.Get("pipeline")
	require.True(t, ok)
	assert.Len(t, docs, 1)
}
