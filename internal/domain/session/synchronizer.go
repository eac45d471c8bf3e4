package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Synchronizer keeps a Store in step with a Provider.
type Synchronizer struct {
	provider Provider
	store    *Store
	logger   *slog.Logger

	startOnce sync.Once
	closeOnce sync.Once
	ready     chan struct{}

	mu          sync.Mutex
	unsubscribe func()
}

// NewSynchronizer creates a synchronizer writing into store.
func NewSynchronizer(provider Provider, store *Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synchronizer{
		provider: provider,
		store:    store,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Start subscribes to provider changes and performs the one-time initial
// session fetch. Only the first call has any effect.
func (s *Synchronizer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		unsubscribe := s.provider.OnSessionChange(s.handleEvent)
		s.mu.Lock()
		s.unsubscribe = unsubscribe
		s.mu.Unlock()

		s.initialLoad(ctx)
		close(s.ready)
	})
}

func (s *Synchronizer) initialLoad(ctx context.Context) {
	ps, err := s.provider.GetSession(ctx)
	if err != nil {
		s.logger.Warn("initial session fetch failed", "error", err)
		s.store.Write(Session{})
		return
	}
	s.store.Write(Normalize(ps))
}

func (s *Synchronizer) handleEvent(ev Event) {
	switch ev.Kind {
	case EventSignedOut:
		s.logger.Debug("session signed out")
		s.store.Write(Session{})
	default:
		s.logger.Debug("session event ignored", "kind", ev.Kind)
	}
}

// Adopt writes the session returned by a successful sign-in or sign-up.
func (s *Synchronizer) Adopt(ps *ProviderSession) {
	s.store.Write(Normalize(ps))
}

// Loaded reports whether the initial session fetch has completed.
func (s *Synchronizer) Loaded() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Ready is closed once the initial session fetch has completed.
func (s *Synchronizer) Ready() <-chan struct{} {
	return s.ready
}

// Close releases the provider subscription. Safe to call more than once.
func (s *Synchronizer) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		unsubscribe := s.unsubscribe
		s.unsubscribe = nil
		s.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	})
}
