// Package app owns the client-side state of the todo list: the session, the
// query cache and its active query, the persisted filter, and the mutation
// coordinator. Its methods are what a view calls.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/filterstate"
	"github.com/rpggio/checklist/internal/mutation"
	"github.com/rpggio/checklist/internal/querycache"
)

// TodoService reads and writes the remote todo rows.
type TodoService interface {
	querycache.Loader
	mutation.Remote
}

// App wires the client components together.
type App struct {
	provider session.Provider
	sessions *session.Store
	sync     *session.Synchronizer
	cache    *querycache.Cache
	query    *querycache.Query
	filters  *filterstate.Persistence
	coord    *mutation.Coordinator
	form     *mutation.Form
	edits    *mutation.Edits
	logger   *slog.Logger
}

// New creates an app. The initial query params are restored from loc.
func New(provider session.Provider, todos TodoService, loc filterstate.Location, logger *slog.Logger, opts ...mutation.Option) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sessions := session.NewStore()
	cache := querycache.New(logger)
	filters := filterstate.New(loc, logger)
	edits := &mutation.Edits{}

	opts = append([]mutation.Option{mutation.WithEdits(edits)}, opts...)

	return &App{
		provider: provider,
		sessions: sessions,
		sync:     session.NewSynchronizer(provider, sessions, logger),
		cache:    cache,
		query:    querycache.NewQuery(cache, todos, sessions, logger, filters.Load()),
		filters:  filters,
		coord:    mutation.NewCoordinator(cache, todos, sessions, logger, opts...),
		form:     &mutation.Form{},
		edits:    edits,
		logger:   logger,
	}
}

// Start loads the initial session and begins fetching once it is usable.
func (a *App) Start(ctx context.Context) {
	a.query.Start(ctx)
	a.sync.Start(ctx)
}

// Close releases subscriptions and waits for in-flight fetches.
func (a *App) Close() {
	a.sync.Close()
	a.query.Close()
}

// Ready is closed once the initial session load has finished.
func (a *App) Ready() <-chan struct{} {
	return a.sync.Ready()
}

// Wait blocks until in-flight fetches have finished.
func (a *App) Wait() {
	a.query.Wait()
}

// Session returns the current session.
func (a *App) Session() session.Session {
	return a.sessions.Read()
}

// SignIn authenticates and adopts the resulting session.
func (a *App) SignIn(ctx context.Context, creds session.Credentials) error {
	ps, err := a.provider.SignIn(ctx, creds)
	if err != nil {
		return err
	}
	a.sync.Adopt(ps)
	return nil
}

// SignUp registers, then adopts the resulting session.
func (a *App) SignUp(ctx context.Context, creds session.Credentials) error {
	ps, err := a.provider.SignUp(ctx, creds)
	if err != nil {
		return err
	}
	a.sync.Adopt(ps)
	return nil
}

// SignOut returns the location to "/" and signs out. The session clears
// through the provider's SIGNED_OUT event.
func (a *App) SignOut(ctx context.Context) error {
	a.filters.Clear()
	err := a.provider.SignOut(ctx)
	a.edits.Clear()
	a.form.Reset()
	a.query.SetParams(todo.DefaultQueryParams())
	if err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

// Params returns the active query params.
func (a *App) Params() todo.QueryParams {
	return a.query.Params()
}

// SetParams makes params active and saves them to the location.
func (a *App) SetParams(params todo.QueryParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	a.query.SetParams(params)
	a.filters.Save(params)
	return nil
}

// SetOrderBy changes the sort column.
func (a *App) SetOrderBy(orderBy todo.OrderBy) error {
	p := a.query.Params()
	p.OrderBy = orderBy
	return a.SetParams(p)
}

// SetFilter changes the completion filter.
func (a *App) SetFilter(filter todo.Filter) error {
	p := a.query.Params()
	p.Filter = filter
	return a.SetParams(p)
}

// SetAscending sets the sort direction.
func (a *App) SetAscending(ascending bool) error {
	p := a.query.Params()
	p.Ascending = ascending
	return a.SetParams(p)
}

// ToggleAscending flips the sort direction.
func (a *App) ToggleAscending() error {
	return a.SetAscending(!a.query.Params().Ascending)
}

// SetDraft sets the new-item form value.
func (a *App) SetDraft(title string) {
	a.form.Set(title)
}

// Add creates an item from title.
func (a *App) Add(ctx context.Context, title string) mutation.Result {
	a.form.Set(title)
	return a.coord.Create(ctx, a.query.Key(), a.form)
}

// Toggle flips the completion flag of item id.
func (a *App) Toggle(ctx context.Context, id int64) mutation.Result {
	return a.coord.Toggle(ctx, a.query.Key(), id)
}

// BeginEdit puts item id into edit mode.
func (a *App) BeginEdit(id int64) {
	a.edits.Begin(id)
}

// CancelEdit leaves edit mode for item id without saving.
func (a *App) CancelEdit(id int64) {
	a.edits.End(id)
}

// Rename sets the title of item id. Edit mode ends only if it succeeds.
func (a *App) Rename(ctx context.Context, id int64, title string) mutation.Result {
	return a.coord.Rename(ctx, a.query.Key(), id, title)
}

// Delete removes item id.
func (a *App) Delete(ctx context.Context, id int64) mutation.Result {
	return a.coord.Delete(ctx, a.query.Key(), id)
}

// Refresh refetches the active query.
func (a *App) Refresh() {
	a.query.Refetch()
}
