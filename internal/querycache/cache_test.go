package querycache_test

import (
	"testing"

	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/querycache"
	"github.com/stretchr/testify/require"
)

var key = querycache.BuildKey(todo.DefaultQueryParams())

func items(ids ...int64) []todo.Todo {
	out := make([]todo.Todo, 0, len(ids))
	for _, id := range ids {
		out = append(out, todo.Todo{ID: id, Title: "item"})
	}
	return out
}

func ids(list []todo.Todo) []int64 {
	out := make([]int64, 0, len(list))
	for _, it := range list {
		out = append(out, it.ID)
	}
	return out
}

func TestCache_FetchLifecycle(t *testing.T) {
	cache := querycache.New(nil)

	ticket := cache.BeginFetch(key)
	entry, ok := cache.Get(key)
	require.True(t, ok)
	require.True(t, entry.Loading)
	require.Nil(t, entry.Items)

	require.True(t, cache.CompleteFetch(ticket, items(1, 2)))
	entry, ok = cache.Get(key)
	require.True(t, ok)
	require.False(t, entry.Loading)
	require.Equal(t, []int64{1, 2}, ids(entry.Items))
	require.False(t, entry.UpdatedAt.IsZero())
}

func TestCache_NewerTicketSupersedesOlder(t *testing.T) {
	cache := querycache.New(nil)

	first := cache.BeginFetch(key)
	second := cache.BeginFetch(key)

	require.True(t, cache.CompleteFetch(second, items(2)))
	require.False(t, cache.CompleteFetch(first, items(1)))

	entry, _ := cache.Get(key)
	require.Equal(t, []int64{2}, ids(entry.Items))
}

func TestCache_StaleFetchDoesNotClobberWrite(t *testing.T) {
	cache := querycache.New(nil)
	cache.Set(key, items(1))

	ticket := cache.BeginFetch(key)
	require.True(t, cache.Update(key, func(list []todo.Todo) []todo.Todo {
		return append(list, todo.Todo{ID: 2})
	}))
	require.False(t, cache.CompleteFetch(ticket, items(1)))

	entry, _ := cache.Get(key)
	require.Equal(t, []int64{1, 2}, ids(entry.Items))
	require.False(t, entry.Loading)
}

func TestCache_CancelInFlightMarksStale(t *testing.T) {
	cache := querycache.New(nil)
	cache.Set(key, items(1))

	ticket := cache.BeginFetch(key)
	cache.CancelInFlight(key)
	require.False(t, cache.CompleteFetch(ticket, nil))

	entry, ok := cache.Get(key)
	require.True(t, ok)
	require.True(t, entry.Stale)
	require.False(t, entry.Loading)
	require.Equal(t, []int64{1}, ids(entry.Items))
}

func TestCache_UpdateAbsent(t *testing.T) {
	cache := querycache.New(nil)
	called := false
	require.False(t, cache.Update(key, func(list []todo.Todo) []todo.Todo {
		called = true
		return list
	}))
	require.False(t, called)

	cache.BeginFetch(key)
	require.False(t, cache.Update(key, func(list []todo.Todo) []todo.Todo { return list }))
}

func TestCache_GetReturnsCopy(t *testing.T) {
	cache := querycache.New(nil)
	cache.Set(key, items(1))

	entry, _ := cache.Get(key)
	entry.Items[0].Title = "changed"

	again, _ := cache.Get(key)
	require.Equal(t, "item", again.Items[0].Title)
}

func TestCache_FailFetch(t *testing.T) {
	cache := querycache.New(nil)

	ticket := cache.BeginFetch(key)
	require.True(t, cache.FailFetch(ticket))
	_, ok := cache.Get(key)
	require.False(t, ok)

	cache.Set(key, items(1))
	ticket = cache.BeginFetch(key)
	require.True(t, cache.FailFetch(ticket))
	entry, ok := cache.Get(key)
	require.True(t, ok)
	require.False(t, entry.Loading)
	require.Equal(t, []int64{1}, ids(entry.Items))
}

func TestCache_ResetAndEvict(t *testing.T) {
	cache := querycache.New(nil)
	other := querycache.BuildKey(todo.QueryParams{OrderBy: todo.OrderByTitle, Filter: todo.FilterAll})
	cache.Set(key, items(1))
	cache.Set(other, items(2))
	require.Len(t, cache.Keys(), 2)

	cache.Evict(other)
	require.Equal(t, []querycache.Key{key}, cache.Keys())

	ticket := cache.BeginFetch(key)
	cache.Reset()
	require.Empty(t, cache.Keys())
	require.False(t, cache.CompleteFetch(ticket, items(3)))
	require.Empty(t, cache.Keys())
}

func TestCache_Subscribe(t *testing.T) {
	cache := querycache.New(nil)
	var changed []querycache.Key
	unsubscribe := cache.Subscribe(func(k querycache.Key) { changed = append(changed, k) })

	cache.Set(key, items(1))
	cache.Update(key, func(list []todo.Todo) []todo.Todo { return list })
	unsubscribe()
	unsubscribe()
	cache.Set(key, nil)

	require.Equal(t, []querycache.Key{key, key}, changed)
}
