package filterstate

import (
	"net/url"
	"sync"
)

// Location is the address whose query string carries the filter state.
type Location interface {
	// Query returns the raw query string, without the leading '?'.
	Query() string
	// Replace swaps the current history entry's query string.
	Replace(query string)
}

// MemoryLocation is an in-process Location. Replace never adds history.
type MemoryLocation struct {
	mu      sync.Mutex
	url     url.URL
	history int
}

// NewMemoryLocation creates a location at raw, which may be a path with an
// optional query string. Unparseable input starts at "/".
func NewMemoryLocation(raw string) *MemoryLocation {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		u = &url.URL{Path: "/"}
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return &MemoryLocation{url: *u, history: 1}
}

func (l *MemoryLocation) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.RawQuery
}

func (l *MemoryLocation) Replace(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.url.RawQuery = query
}

// Navigate replaces the whole location with raw.
func (l *MemoryLocation) Navigate(raw string) {
	next := NewMemoryLocation(raw)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.url = next.url
}

// URL returns the current location as a string.
func (l *MemoryLocation) URL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.String()
}

// HistoryLength returns the number of history entries.
func (l *MemoryLocation) HistoryLength() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history
}
