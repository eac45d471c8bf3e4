package mocks

import (
	"context"
	"sync"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/repository"
	"github.com/stretchr/testify/mock"
)

// RowStore is a mock for repository.RowStore.
type RowStore struct {
	mock.Mock
}

func (m *RowStore) Select(ctx context.Context, table string, columns []string, where []repository.Predicate, order *repository.Order) ([]repository.Row, error) {
	args := m.Called(ctx, table, columns, where, order)
	if rows, ok := args.Get(0).([]repository.Row); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RowStore) Insert(ctx context.Context, table string, row repository.Row, returning []string) (repository.Row, error) {
	args := m.Called(ctx, table, row, returning)
	if out, ok := args.Get(0).(repository.Row); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RowStore) Update(ctx context.Context, table string, patch repository.Row, where []repository.Predicate) error {
	args := m.Called(ctx, table, patch, where)
	return args.Error(0)
}

func (m *RowStore) Delete(ctx context.Context, table string, where []repository.Predicate) error {
	args := m.Called(ctx, table, where)
	return args.Error(0)
}

// AuthBackend is a mock for auth.Backend.
type AuthBackend struct {
	mock.Mock
}

func (m *AuthBackend) SignUp(ctx context.Context, email, password string) (*session.ProviderSession, error) {
	args := m.Called(ctx, email, password)
	if sess, ok := args.Get(0).(*session.ProviderSession); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthBackend) SignIn(ctx context.Context, email, password string) (*session.ProviderSession, error) {
	args := m.Called(ctx, email, password)
	if sess, ok := args.Get(0).(*session.ProviderSession); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthBackend) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *AuthBackend) GetUser(ctx context.Context, accessToken string) (*session.User, error) {
	args := m.Called(ctx, accessToken)
	if user, ok := args.Get(0).(*session.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// SessionProvider is a mock for session.Provider. Listeners registered through
// OnSessionChange are kept so tests can emit events with Emit.
type SessionProvider struct {
	mock.Mock

	mu        sync.Mutex
	listeners []func(session.Event)
}

func (m *SessionProvider) GetSession(ctx context.Context) (*session.ProviderSession, error) {
	args := m.Called(ctx)
	if sess, ok := args.Get(0).(*session.ProviderSession); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionProvider) OnSessionChange(listener func(session.Event)) func() {
	m.Called()
	m.mu.Lock()
	m.listeners = append(m.listeners, listener)
	idx := len(m.listeners) - 1
	m.mu.Unlock()
	return func() {
		m.MethodCalled("unsubscribe")
		m.mu.Lock()
		m.listeners[idx] = nil
		m.mu.Unlock()
	}
}

func (m *SessionProvider) SignIn(ctx context.Context, creds session.Credentials) (*session.ProviderSession, error) {
	args := m.Called(ctx, creds)
	if sess, ok := args.Get(0).(*session.ProviderSession); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionProvider) SignUp(ctx context.Context, creds session.Credentials) (*session.ProviderSession, error) {
	args := m.Called(ctx, creds)
	if sess, ok := args.Get(0).(*session.ProviderSession); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Emit delivers ev to every live listener.
func (m *SessionProvider) Emit(ev session.Event) {
	m.mu.Lock()
	listeners := append([]func(session.Event){}, m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			l(ev)
		}
	}
}

// TodoLoader is a mock for querycache.Loader.
type TodoLoader struct {
	mock.Mock
}

func (m *TodoLoader) List(ctx context.Context, userID string, params todo.QueryParams) ([]todo.Todo, error) {
	args := m.Called(ctx, userID, params)
	if items, ok := args.Get(0).([]todo.Todo); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

// TodoRemote is a mock for mutation.Remote.
type TodoRemote struct {
	mock.Mock
}

func (m *TodoRemote) Create(ctx context.Context, userID, title string) (todo.Todo, error) {
	args := m.Called(ctx, userID, title)
	if item, ok := args.Get(0).(todo.Todo); ok {
		return item, args.Error(1)
	}
	return todo.Todo{}, args.Error(1)
}

func (m *TodoRemote) SetTitle(ctx context.Context, userID string, id int64, title string) error {
	args := m.Called(ctx, userID, id, title)
	return args.Error(0)
}

func (m *TodoRemote) SetCompleted(ctx context.Context, userID string, id int64, completed bool) error {
	args := m.Called(ctx, userID, id, completed)
	return args.Error(0)
}

func (m *TodoRemote) Delete(ctx context.Context, userID string, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
