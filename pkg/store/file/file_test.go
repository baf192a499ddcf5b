package file

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landdiv/landflow/pkg/store"
)

type testDoc struct {
	ID     string         `json:"id,omitempty"`
	Name   string         `json:"name"`
	Count  float64        `json:"count"`
	Tags   []string       `json:"tags,omitempty"`
	Nested map[string]any `json:"nested,omitempty"`
}

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	id, err := s.Create(ctx, "docs", testDoc{Name: "first", Count: 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got testDoc

	err = s.Get(ctx, "docs", id, &got)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, float64(1), got.Count)
}

func TestStore_GetNotFound(t *testing.T) {
	s := NewStore(t.TempDir())

	var got testDoc

	err := s.Get(context.Background(), "docs", "missing", &got)
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestStore_UpdateNotFound(t *testing.T) {
	s := NewStore(t.TempDir())

	err := s.Update(context.Background(), "docs", "missing", []store.Op{store.Set("name", "x")})
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestStore_UpdateOps(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	id, err := s.Create(ctx, "docs", testDoc{Name: "doc", Count: 5})
	require.NoError(t, err)

	err = s.Update(ctx, "docs", id, []store.Op{
		store.Set("name", "renamed"),
		store.Increment("count", 2),
		store.ArrayAppend("tags", "a"),
		store.ArrayAppend("tags", "b"),
		store.Set("nested.inner.value", 42),
	})
	require.NoError(t, err)

	var got testDoc

	err = s.Get(ctx, "docs", id, &got)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, float64(7), got.Count)
	assert.Equal(t, []string{"a", "b"}, got.Tags)

	inner, ok := got.Nested["inner"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), inner["value"])
}

func TestStore_Unset(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	id, err := s.Create(ctx, "docs", testDoc{Name: "doc", Tags: []string{"keep"}})
	require.NoError(t, err)

	err = s.Update(ctx, "docs", id, []store.Op{store.Unset("tags")})
	require.NoError(t, err)

	var got testDoc

	err = s.Get(ctx, "docs", id, &got)
	require.NoError(t, err)
	assert.Nil(t, got.Tags)

	// Unsetting a missing path is not an error.
	err = s.Update(ctx, "docs", id, []store.Op{store.Unset("nested.gone.deeper")})
	require.NoError(t, err)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	id, err := s.Create(ctx, "docs", testDoc{Name: "doc"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "docs", id))
	require.NoError(t, s.Delete(ctx, "docs", id))

	var got testDoc

	err = s.Get(ctx, "docs", id, &got)
	assert.True(t, store.IsNotFound(err))
}

func TestStore_ListFiltersAndOrders(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	for _, doc := range []testDoc{
		{Name: "charlie", Count: 3},
		{Name: "alpha", Count: 1},
		{Name: "bravo", Count: 2},
		{Name: "alpha", Count: 9},
	} {
		_, err := s.Create(ctx, "docs", doc)
		require.NoError(t, err)
	}

	var all []testDoc

	err := s.List(ctx, "docs", store.ListOptions{OrderBy: "count"}, &all)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, float64(1), all[0].Count)
	assert.Equal(t, float64(9), all[3].Count)

	var filtered []testDoc

	err = s.List(ctx, "docs", store.ListOptions{
		Filters: map[string]any{"name": "alpha"},
		OrderBy: "count",
		Desc:    true,
	}, &filtered)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, float64(9), filtered[0].Count)
	assert.Equal(t, float64(1), filtered[1].Count)
}

func TestStore_ListEmptyCollection(t *testing.T) {
	s := NewStore(t.TempDir())

	var all []testDoc

	err := s.List(context.Background(), "docs", store.ListOptions{}, &all)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_ConcurrentArrayAppends(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	id, err := s.Create(ctx, "docs", testDoc{Name: "doc"})
	require.NoError(t, err)

	const writers = 20

	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := s.Update(ctx, "docs", id, []store.Op{store.ArrayAppend("tags", "tag")})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	var got testDoc

	err = s.Get(ctx, "docs", id, &got)
	require.NoError(t, err)
	assert.Len(t, got.Tags, writers)
}
