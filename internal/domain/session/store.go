package session

import "sync"

// Store holds the single current Session and publishes every write.
type Store struct {
	mu        sync.RWMutex
	current   Session
	nextID    int
	listeners []storeListener
}

type storeListener struct {
	id int
	fn func(Session)
}

// NewStore creates a store holding the empty session.
func NewStore() *Store {
	return &Store{}
}

// Read returns the current session.
func (s *Store) Read() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Write replaces the whole session and notifies subscribers in subscription
// order.
func (s *Store) Write(next Session) {
	s.mu.Lock()
	s.current = next
	listeners := make([]storeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(next)
	}
}

// Subscribe registers fn for every subsequent write.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, storeListener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
