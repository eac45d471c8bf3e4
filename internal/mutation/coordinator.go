// Package mutation applies todo changes to the query cache and the remote
// store in three phases: apply locally, attempt remotely, reconcile.
//
// Reconciliation always goes through querycache.Cache.Update, so it works on
// the entry as it is when the remote call returns. Edits made by other
// mutations in the meantime are kept.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/querycache"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithOptimisticDelete removes items before the remote delete and restores
// them if it fails.
func WithOptimisticDelete() Option {
	return func(c *Coordinator) { c.optimisticDelete = true }
}

// WithNotifier replaces the default log notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithEdits lets Rename end edit mode for the renamed item once confirmed.
func WithEdits(e *Edits) Option {
	return func(c *Coordinator) { c.edits = e }
}

// Coordinator runs mutations for the session's user.
type Coordinator struct {
	cache    *querycache.Cache
	remote   Remote
	sessions *session.Store
	notifier Notifier
	edits    *Edits
	logger   *slog.Logger

	optimisticDelete bool
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cache *querycache.Cache, remote Remote, sessions *session.Store, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Coordinator{
		cache:    cache,
		remote:   remote,
		sessions: sessions,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = LogNotifier{Logger: logger}
	}
	return c
}

func (c *Coordinator) userID() (string, error) {
	s := c.sessions.Read()
	if !s.Usable() {
		return "", session.ErrUnauthenticated
	}
	return s.UserID, nil
}

func rejected(op Op, err error) Result {
	return Result{Op: op, Status: Rejected, Err: err}
}

func (c *Coordinator) failed(op Op, status Status, id int64, err error) Result {
	c.notifier.MutationFailed(op, id, err)
	return Result{Op: op, Status: status, Err: err}
}

// Toggle flips the completion flag of item id in key's list. The flip is
// shown immediately and undone if the remote update fails.
func (c *Coordinator) Toggle(ctx context.Context, key querycache.Key, id int64) Result {
	userID, err := c.userID()
	if err != nil {
		return rejected(OpToggle, err)
	}

	snap := c.snapshot(key)
	idx := indexOf(snap.Items, id)
	if idx < 0 {
		return rejected(OpToggle, fmt.Errorf("toggling todo %d: %w", id, todo.ErrTodoNotFound))
	}

	// A fetch that started before the flip would overwrite it.
	c.cache.CancelInFlight(key)
	original := snap.Items[idx]
	target := !original.Completed

	optimistic := cloneItems(snap.Items)
	optimistic[idx].Completed = target
	c.cache.Update(key, func([]todo.Todo) []todo.Todo { return optimistic })

	if err := c.remote.SetCompleted(ctx, userID, id, target); err != nil {
		c.cache.Update(key, func(current []todo.Todo) []todo.Todo {
			if itemsEqual(current, optimistic) {
				return snap.Items
			}
			return mapItem(current, id, func(t todo.Todo) todo.Todo {
				t.Completed = original.Completed
				return t
			})
		})
		c.logger.Warn("toggle rolled back", "todo_id", id, "error", err)
		return c.failed(OpToggle, RolledBack, id, err)
	}

	item := original
	item.Completed = target
	return Result{Op: OpToggle, Status: Confirmed, Item: item}
}

// Rename sets the title of item id once the remote store accepts it.
func (c *Coordinator) Rename(ctx context.Context, key querycache.Key, id int64, title string) Result {
	userID, err := c.userID()
	if err != nil {
		return rejected(OpRename, err)
	}
	if err := todo.ValidateTitle(title); err != nil {
		return rejected(OpRename, err)
	}
	title = strings.TrimSpace(title)

	if err := c.remote.SetTitle(ctx, userID, id, title); err != nil {
		return c.failed(OpRename, Failed, id, err)
	}

	var item todo.Todo
	c.cache.Update(key, func(current []todo.Todo) []todo.Todo {
		return mapItem(current, id, func(t todo.Todo) todo.Todo {
			t.Title = title
			item = t
			return t
		})
	})
	if item.ID == 0 {
		item = todo.Todo{ID: id, Title: title}
	}
	if c.edits != nil {
		c.edits.End(id)
	}
	return Result{Op: OpRename, Status: Confirmed, Item: item}
}

// Delete removes item id. By default the item stays visible until the remote
// store confirms; see WithOptimisticDelete.
func (c *Coordinator) Delete(ctx context.Context, key querycache.Key, id int64) Result {
	userID, err := c.userID()
	if err != nil {
		return rejected(OpDelete, err)
	}
	if c.optimisticDelete {
		return c.deleteOptimistic(ctx, key, userID, id)
	}

	if err := c.remote.Delete(ctx, userID, id); err != nil {
		return c.failed(OpDelete, Failed, id, err)
	}

	var removed todo.Todo
	c.cache.Update(key, func(current []todo.Todo) []todo.Todo {
		var out []todo.Todo
		removed, out = removeItem(current, id)
		return out
	})
	if removed.ID == 0 {
		removed.ID = id
	}
	return Result{Op: OpDelete, Status: Confirmed, Item: removed}
}

func (c *Coordinator) deleteOptimistic(ctx context.Context, key querycache.Key, userID string, id int64) Result {
	c.cache.CancelInFlight(key)

	snap := c.snapshot(key)
	pos := indexOf(snap.Items, id)
	var removed todo.Todo
	if pos >= 0 {
		removed = snap.Items[pos]
		c.cache.Update(key, func(current []todo.Todo) []todo.Todo {
			_, out := removeItem(current, id)
			return out
		})
	}

	if err := c.remote.Delete(ctx, userID, id); err != nil {
		if pos < 0 {
			return c.failed(OpDelete, Failed, id, err)
		}
		c.cache.Update(key, func(current []todo.Todo) []todo.Todo {
			if indexOf(current, id) >= 0 {
				return current
			}
			return insertAt(current, pos, removed)
		})
		return c.failed(OpDelete, RolledBack, id, err)
	}

	if pos < 0 {
		removed.ID = id
	}
	return Result{Op: OpDelete, Status: Confirmed, Item: removed}
}

// Create inserts the form's title. On success the server row is appended to
// key's list and the form is cleared; on failure the form keeps its value.
func (c *Coordinator) Create(ctx context.Context, key querycache.Key, form *Form) Result {
	userID, err := c.userID()
	if err != nil {
		return rejected(OpCreate, err)
	}
	title := form.Value()
	if err := todo.ValidateTitle(title); err != nil {
		return rejected(OpCreate, err)
	}

	created, err := c.remote.Create(ctx, userID, strings.TrimSpace(title))
	if err != nil {
		return c.failed(OpCreate, Failed, 0, err)
	}

	c.cache.Update(key, func(current []todo.Todo) []todo.Todo {
		if indexOf(current, created.ID) >= 0 {
			return current
		}
		return append(current, created)
	})
	form.Reset()
	return Result{Op: OpCreate, Status: Confirmed, Item: created}
}

// IsRejected reports whether err came from gating or validation rather than
// from the remote store.
func IsRejected(err error) bool {
	return errors.Is(err, session.ErrUnauthenticated) ||
		errors.Is(err, todo.ErrInvalidTitle) ||
		errors.Is(err, todo.ErrTodoNotFound)
}

func (c *Coordinator) snapshot(key querycache.Key) Snapshot {
	entry, ok := c.cache.Get(key)
	return Snapshot{Items: entry.Items, Exists: ok}
}

func indexOf(items []todo.Todo, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func mapItem(items []todo.Todo, id int64, fn func(todo.Todo) todo.Todo) []todo.Todo {
	for i := range items {
		if items[i].ID == id {
			items[i] = fn(items[i])
		}
	}
	return items
}

func removeItem(items []todo.Todo, id int64) (todo.Todo, []todo.Todo) {
	var removed todo.Todo
	out := items[:0]
	for _, it := range items {
		if it.ID == id {
			removed = it
			continue
		}
		out = append(out, it)
	}
	return removed, out
}

func insertAt(items []todo.Todo, pos int, it todo.Todo) []todo.Todo {
	if pos > len(items) {
		pos = len(items)
	}
	items = append(items, todo.Todo{})
	copy(items[pos+1:], items[pos:])
	items[pos] = it
	return items
}

func itemsEqual(a, b []todo.Todo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].Title != b[i].Title ||
			a[i].Completed != b[i].Completed ||
			!a[i].CreatedAt.Equal(b[i].CreatedAt) {
			return false
		}
	}
	return true
}

func cloneItems(items []todo.Todo) []todo.Todo {
	out := make([]todo.Todo, len(items))
	copy(out, items)
	return out
}
