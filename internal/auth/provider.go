// Package auth implements session.Provider on top of a password backend and
// a persisted access token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/repository"
)

// Backend authenticates users and resolves access tokens.
type Backend interface {
	SignUp(ctx context.Context, email, password string) (*session.ProviderSession, error)
	SignIn(ctx context.Context, email, password string) (*session.ProviderSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*session.User, error)
}

// Provider issues sessions and tells listeners when they change.
type Provider struct {
	backend Backend
	tokens  TokenStore
	logger  *slog.Logger

	mu        sync.Mutex
	current   *session.ProviderSession
	nextID    int
	listeners map[int]func(session.Event)
}

// NewProvider creates a provider.
func NewProvider(backend Backend, tokens TokenStore, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Provider{
		backend:   backend,
		tokens:    tokens,
		logger:    logger,
		listeners: make(map[int]func(session.Event)),
	}
}

// GetSession returns the current session, resolving a stored token on first
// use. An unknown or expired token is discarded and reported as no session.
func (p *Provider) GetSession(ctx context.Context) (*session.ProviderSession, error) {
	p.mu.Lock()
	if p.current != nil {
		ps := *p.current
		p.mu.Unlock()
		return &ps, nil
	}
	p.mu.Unlock()

	ti, err := p.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	if ti == nil {
		return nil, nil
	}

	user, err := p.backend.GetUser(ctx, ti.Token)
	if err != nil {
		if errors.Is(err, repository.ErrUnauthorized) || errors.Is(err, repository.ErrNotFound) {
			p.logger.Info("stored token rejected, clearing", "source", ti.Source)
			if clearErr := p.tokens.Clear(); clearErr != nil {
				p.logger.Warn("clearing token failed", "error", clearErr)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}

	ps := &session.ProviderSession{AccessToken: ti.Token, User: *user}
	p.mu.Lock()
	p.current = ps
	p.mu.Unlock()
	out := *ps
	return &out, nil
}

// AccessToken returns the token of the current session, if any.
func (p *Provider) AccessToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ""
	}
	return p.current.AccessToken
}

// OnSessionChange registers listener for session events.
func (p *Provider) OnSessionChange(listener func(session.Event)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = listener
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// SignIn authenticates with email and password.
func (p *Provider) SignIn(ctx context.Context, creds session.Credentials) (*session.ProviderSession, error) {
	if err := todo.ValidateCredentials(creds.Email, creds.Password); err != nil {
		return nil, err
	}
	ps, err := p.backend.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, mapBackendError("signing in", err)
	}
	return p.establish(ps), nil
}

// SignUp registers a new user and signs them in.
func (p *Provider) SignUp(ctx context.Context, creds session.Credentials) (*session.ProviderSession, error) {
	if err := todo.ValidateCredentials(creds.Email, creds.Password); err != nil {
		return nil, err
	}
	ps, err := p.backend.SignUp(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, mapBackendError("signing up", err)
	}
	return p.establish(ps), nil
}

// SignOut ends the session. Local state is cleared and SIGNED_OUT emitted
// even when the backend call fails.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	var token string
	if p.current != nil {
		token = p.current.AccessToken
	}
	p.current = nil
	p.mu.Unlock()

	if token == "" {
		if ti, err := p.tokens.Load(); err == nil && ti != nil {
			token = ti.Token
		}
	}
	if err := p.tokens.Clear(); err != nil {
		p.logger.Warn("clearing token failed", "error", err)
	}

	var backendErr error
	if token != "" {
		backendErr = p.backend.SignOut(ctx, token)
	}
	p.emit(session.Event{Kind: session.EventSignedOut})

	if backendErr != nil {
		return fmt.Errorf("signing out: %w", backendErr)
	}
	return nil
}

func (p *Provider) establish(ps *session.ProviderSession) *session.ProviderSession {
	if err := p.tokens.Save(ps.AccessToken); err != nil {
		p.logger.Warn("saving token failed", "error", err)
	}
	p.mu.Lock()
	stored := *ps
	p.current = &stored
	p.mu.Unlock()

	out := *ps
	p.emit(session.Event{Kind: session.EventSignedIn, Session: &out})
	return ps
}

func (p *Provider) emit(ev session.Event) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	sort.Ints(ids)
	for _, id := range ids {
		p.mu.Lock()
		fn, ok := p.listeners[id]
		p.mu.Unlock()
		if ok {
			fn(ev)
		}
	}
}

func mapBackendError(action string, err error) error {
	switch {
	case errors.Is(err, repository.ErrUnauthorized):
		return fmt.Errorf("%s: %w", action, session.ErrInvalidCredentials)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w", action, session.ErrEmailTaken)
	}
	return fmt.Errorf("%s: %w", action, err)
}
