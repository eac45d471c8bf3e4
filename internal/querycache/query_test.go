package querycache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/querycache"
	"github.com/rpggio/checklist/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func usable(userID string) session.Session {
	return session.Session{UserID: userID, Audience: session.AudienceAuthenticated}
}

func TestQuery_NoFetchWithoutUsableSession(t *testing.T) {
	loader := &mocks.TodoLoader{}
	store := session.NewStore()
	cache := querycache.New(nil)

	q := querycache.NewQuery(cache, loader, store, nil, todo.DefaultQueryParams())
	q.Start(context.Background())
	q.Refetch()
	store.Write(session.Session{UserID: "u1"})
	q.Wait()

	loader.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	require.Empty(t, cache.Keys())
	q.Close()
}

func TestQuery_FetchesOncePerKeyWhenUserArrives(t *testing.T) {
	params := todo.DefaultQueryParams()
	loader := &mocks.TodoLoader{}
	loader.On("List", mock.Anything, "u1", params).Return(items(1, 2), nil).Once()

	store := session.NewStore()
	cache := querycache.New(nil)
	q := querycache.NewQuery(cache, loader, store, nil, params)
	q.Start(context.Background())

	store.Write(usable("u1"))
	store.Write(usable("u1"))
	q.Wait()

	entry, ok := q.Entry()
	require.True(t, ok)
	require.Equal(t, []int64{1, 2}, ids(entry.Items))
	loader.AssertNumberOfCalls(t, "List", 1)
	q.Close()
}

func TestQuery_KeyChangeFetches(t *testing.T) {
	first := todo.DefaultQueryParams()
	second := todo.QueryParams{OrderBy: todo.OrderByTitle, Ascending: true, Filter: todo.FilterCompleted}

	loader := &mocks.TodoLoader{}
	loader.On("List", mock.Anything, "u1", first).Return(items(1, 2), nil).Once()
	loader.On("List", mock.Anything, "u1", second).Return(items(2), nil).Once()

	store := session.NewStore()
	store.Write(usable("u1"))
	cache := querycache.New(nil)
	q := querycache.NewQuery(cache, loader, store, nil, first)
	q.Start(context.Background())
	q.Wait()

	q.SetParams(second)
	q.SetParams(second)
	q.Wait()

	require.Equal(t, second, q.Params())
	entry, ok := q.Entry()
	require.True(t, ok)
	require.Equal(t, []int64{2}, ids(entry.Items))
	require.Len(t, cache.Keys(), 2)
	loader.AssertExpectations(t)
	q.Close()
}

func TestQuery_SignOutResetsCache(t *testing.T) {
	params := todo.DefaultQueryParams()
	loader := &mocks.TodoLoader{}
	loader.On("List", mock.Anything, "u1", params).Return(items(1), nil)
	loader.On("List", mock.Anything, "u2", params).Return(items(7), nil)

	store := session.NewStore()
	store.Write(usable("u1"))
	cache := querycache.New(nil)
	q := querycache.NewQuery(cache, loader, store, nil, params)
	q.Start(context.Background())
	q.Wait()
	require.Len(t, cache.Keys(), 1)

	store.Write(session.Session{})
	require.Empty(t, cache.Keys())

	store.Write(usable("u2"))
	q.Wait()
	entry, ok := q.Entry()
	require.True(t, ok)
	require.Equal(t, []int64{7}, ids(entry.Items))
	q.Close()
}

func TestQuery_UserChangeRefetches(t *testing.T) {
	params := todo.DefaultQueryParams()
	loader := &mocks.TodoLoader{}
	loader.On("List", mock.Anything, "u1", params).Return(items(1), nil).Once()
	loader.On("List", mock.Anything, "u2", params).Return(items(2), nil).Once()

	store := session.NewStore()
	store.Write(usable("u1"))
	q := querycache.NewQuery(querycache.New(nil), loader, store, nil, params)
	q.Start(context.Background())
	q.Wait()

	store.Write(usable("u2"))
	q.Wait()

	entry, _ := q.Entry()
	require.Equal(t, []int64{2}, ids(entry.Items))
	loader.AssertExpectations(t)
	q.Close()
}

func TestQuery_StaleFetchDropped(t *testing.T) {
	params := todo.DefaultQueryParams()
	release := make(chan struct{})
	loader := &mocks.TodoLoader{}
	loader.On("List", mock.Anything, "u1", params).
		Run(func(mock.Arguments) { <-release }).
		Return(items(1), nil).Once()

	store := session.NewStore()
	store.Write(usable("u1"))
	cache := querycache.New(nil)
	q := querycache.NewQuery(cache, loader, store, nil, params)
	q.Start(context.Background())

	cache.Set(q.Key(), items(1, 2))
	close(release)
	q.Wait()

	entry, _ := q.Entry()
	require.Equal(t, []int64{1, 2}, ids(entry.Items))
	q.Close()
}

func TestQuery_FetchError(t *testing.T) {
	params := todo.DefaultQueryParams()
	boom := errors.New("boom")
	loader := &mocks.TodoLoader{}
	loader.On("List", mock.Anything, "u1", params).Return(nil, boom).Once()
	loader.On("List", mock.Anything, "u1", params).Return(items(4), nil).Once()

	store := session.NewStore()
	store.Write(usable("u1"))
	q := querycache.NewQuery(querycache.New(nil), loader, store, nil, params)
	q.Start(context.Background())
	q.Wait()

	require.ErrorIs(t, q.Err(), boom)
	_, ok := q.Entry()
	require.False(t, ok)

	q.Refetch()
	q.Wait()
	require.NoError(t, q.Err())
	entry, ok := q.Entry()
	require.True(t, ok)
	require.Equal(t, []int64{4}, ids(entry.Items))
	q.Close()
}

func TestQuery_CloseStopsObserving(t *testing.T) {
	loader := &mocks.TodoLoader{}
	store := session.NewStore()
	q := querycache.NewQuery(querycache.New(nil), loader, store, nil, todo.DefaultQueryParams())
	q.Start(context.Background())
	q.Close()
	q.Close()

	store.Write(usable("u1"))
	q.Wait()
	loader.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}
