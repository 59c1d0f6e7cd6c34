package lru_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/refactor/pkg/alg/lru"
)

const (
	// smallMaxEntries limits the cache to 3 entries for eviction tests.
	smallMaxEntries = 3

	testConcurrentGoroutines = 16
	testConcurrentOps        = 200
)

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	t.Parallel()

	_, err := lru.New[string, int](0)
	require.ErrorIs(t, err, lru.ErrCapacity)
}

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	c, err := lru.New[string, int](smallMaxEntries)
	require.NoError(t, err)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	c.Put("a", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c, err := lru.New[string, int](smallMaxEntries)
	require.NoError(t, err)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")

	for _, k := range []string{"a", "c", "d"} {
		_, ok = c.Get(k)
		assert.True(t, ok, k)
	}

	assert.Equal(t, smallMaxEntries, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_CopyFuncDetachesValues(t *testing.T) {
	t.Parallel()

	copies := 0
	c, err := lru.New(smallMaxEntries, lru.WithCopyFunc[string](func(v []int) []int {
		copies++

		return append([]int(nil), v...)
	}))
	require.NoError(t, err)

	orig := []int{1, 2}
	c.Put("k", orig)
	orig[0] = 99

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, got)

	got[1] = 42

	again, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, again)
	assert.Equal(t, 3, copies)
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c, err := lru.New[int, int](smallMaxEntries)
	require.NoError(t, err)

	c.Put(1, 1)
	c.Put(2, 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())

	c.Put(3, 3)

	v, ok := c.Get(3)
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c, err := lru.New[int, int](testConcurrentOps / 2)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for g := range testConcurrentGoroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range testConcurrentOps {
				c.Put(i, g)
				c.Get(i - 1)
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Len(), testConcurrentOps/2)
}
