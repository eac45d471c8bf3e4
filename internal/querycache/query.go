package querycache

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
)

// Loader reads a user's list from the remote store.
type Loader interface {
	List(ctx context.Context, userID string, params todo.QueryParams) ([]todo.Todo, error)
}

// Query drives fetches for the active params. It fetches only while the
// session is usable and refetches when the user or the active key changes.
type Query struct {
	cache    *Cache
	loader   Loader
	sessions *session.Store
	logger   *slog.Logger

	mu          sync.Mutex
	params      todo.QueryParams
	key         Key
	userID      string
	started     bool
	closed      bool
	lastErr     error
	ctx         context.Context
	unsubscribe func()

	wg sync.WaitGroup
}

// NewQuery creates a query for params. Nothing is fetched before Start.
func NewQuery(cache *Cache, loader Loader, sessions *session.Store, logger *slog.Logger, params todo.QueryParams) *Query {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Query{
		cache:    cache,
		loader:   loader,
		sessions: sessions,
		logger:   logger,
		params:   params,
		key:      BuildKey(params),
		ctx:      context.Background(),
	}
}

// Start begins observing the session store and fetches if a usable session
// is already present. Fetches run on a context detached from ctx.
func (q *Query) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.ctx = context.WithoutCancel(ctx)
	q.mu.Unlock()

	unsubscribe := q.sessions.Subscribe(q.onSession)
	q.mu.Lock()
	q.unsubscribe = unsubscribe
	q.mu.Unlock()

	q.onSession(q.sessions.Read())
}

func (q *Query) onSession(s session.Session) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if !s.Usable() {
		hadUser := q.userID != ""
		q.userID = ""
		q.lastErr = nil
		q.mu.Unlock()
		if hadUser {
			q.logger.Debug("session unusable, resetting cache")
		}
		q.cache.Reset()
		return
	}
	if s.UserID == q.userID {
		q.mu.Unlock()
		return
	}
	previous := q.userID
	q.userID = s.UserID
	q.mu.Unlock()

	if previous != "" {
		q.cache.Reset()
	}
	q.fetch()
}

// SetParams makes params the active query and fetches for the new key.
func (q *Query) SetParams(params todo.QueryParams) {
	key := BuildKey(params)
	q.mu.Lock()
	if key == q.key {
		q.mu.Unlock()
		return
	}
	q.params = params
	q.key = key
	fetch := q.started && !q.closed && q.userID != ""
	q.mu.Unlock()

	if fetch {
		q.fetch()
	}
}

// Params returns the active params.
func (q *Query) Params() todo.QueryParams {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.params
}

// Key returns the active key.
func (q *Query) Key() Key {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

// Entry returns the cached entry for the active key.
func (q *Query) Entry() (Entry, bool) {
	return q.cache.Get(q.Key())
}

// Err returns the error of the most recent failed fetch, cleared by the next
// successful one.
func (q *Query) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

// Refetch fetches the active key again. It does nothing without a usable
// session.
func (q *Query) Refetch() {
	q.mu.Lock()
	fetch := q.started && !q.closed && q.userID != ""
	q.mu.Unlock()
	if fetch {
		q.fetch()
	}
}

// Wait blocks until every fetch started so far has finished.
func (q *Query) Wait() {
	q.wg.Wait()
}

// Close stops observing the session store and waits for in-flight fetches.
func (q *Query) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	unsubscribe := q.unsubscribe
	q.unsubscribe = nil
	q.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	q.wg.Wait()
}

// fetch starts a load for the current key. Callers check closed before
// calling, but Close may win the race in between, so it is checked again
// under the lock that guards wg.Add.
func (q *Query) fetch() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	ctx := q.ctx
	userID := q.userID
	params := q.params
	key := q.key
	q.wg.Add(1)
	q.mu.Unlock()

	ticket := q.cache.BeginFetch(key)
	q.logger.Debug("fetching todos", "key", string(key), "user_id", userID)

	go func() {
		defer q.wg.Done()

		items, err := q.loader.List(ctx, userID, params)
		if err != nil {
			q.logger.Warn("fetching todos failed", "key", string(key), "error", err)
			if q.cache.FailFetch(ticket) {
				q.setErr(err)
			}
			return
		}
		if q.cache.CompleteFetch(ticket, items) {
			q.setErr(nil)
		}
	}()
}

func (q *Query) setErr(err error) {
	q.mu.Lock()
	q.lastErr = err
	q.mu.Unlock()
}
