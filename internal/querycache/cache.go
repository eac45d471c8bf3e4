package querycache

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rpggio/checklist/internal/domain/todo"
)

// Entry is a snapshot of one cached list.
type Entry struct {
	Key       Key
	Items     []todo.Todo
	Loading   bool
	Stale     bool
	UpdatedAt time.Time
}

// Ticket identifies one fetch. Only the most recent ticket for a key may
// write its result.
type Ticket struct {
	Key Key
	gen uint64
}

type entry struct {
	items     []todo.Todo
	loaded    bool
	loading   bool
	stale     bool
	updatedAt time.Time
}

// Cache stores fetched lists by key.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	tickets map[Key]uint64
	gen     uint64

	nextListener int
	listeners    map[int]func(Key)

	now    func() time.Time
	logger *slog.Logger
}

// New creates an empty cache.
func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		entries:   make(map[Key]*entry),
		tickets:   make(map[Key]uint64),
		listeners: make(map[int]func(Key)),
		now:       time.Now,
		logger:    logger,
	}
}

// Get returns a copy of the entry for key.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Key:       key,
		Items:     cloneItems(e.items),
		Loading:   e.loading,
		Stale:     e.stale,
		UpdatedAt: e.updatedAt,
	}, true
}

// Set overwrites the items for key.
func (c *Cache) Set(key Key, items []todo.Todo) {
	c.mu.Lock()
	c.supersedeLocked(key)
	e := c.entryLocked(key)
	e.items = cloneItems(items)
	e.loaded = true
	e.updatedAt = c.now()
	c.mu.Unlock()

	c.notify(key)
}

// Update applies fn to the current items for key. It returns false, without
// calling fn, when no data is cached for key.
func (c *Cache) Update(key Key, fn func([]todo.Todo) []todo.Todo) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.loaded {
		c.mu.Unlock()
		return false
	}
	c.supersedeLocked(key)
	e.items = cloneItems(fn(cloneItems(e.items)))
	e.updatedAt = c.now()
	c.mu.Unlock()

	c.notify(key)
	return true
}

// CancelInFlight discards any outstanding fetch for key. The cached items
// are kept and marked stale.
func (c *Cache) CancelInFlight(key Key) {
	c.mu.Lock()
	_, pending := c.tickets[key]
	c.supersedeLocked(key)
	if e, ok := c.entries[key]; ok && pending {
		e.stale = true
	}
	c.mu.Unlock()

	if pending {
		c.notify(key)
	}
}

// BeginFetch marks key as loading and returns the ticket its result must be
// completed with. Older tickets for key are superseded.
func (c *Cache) BeginFetch(key Key) Ticket {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.tickets[key] = gen
	c.entryLocked(key).loading = true
	c.mu.Unlock()

	c.notify(key)
	return Ticket{Key: key, gen: gen}
}

// CompleteFetch stores items if t is still the current ticket for its key.
func (c *Cache) CompleteFetch(t Ticket, items []todo.Todo) bool {
	c.mu.Lock()
	if c.tickets[t.Key] != t.gen {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded fetch", "key", string(t.Key))
		return false
	}
	delete(c.tickets, t.Key)
	e := c.entryLocked(t.Key)
	e.items = cloneItems(items)
	e.loaded = true
	e.loading = false
	e.stale = false
	e.updatedAt = c.now()
	c.mu.Unlock()

	c.notify(t.Key)
	return true
}

// FailFetch clears the loading state if t is still current.
func (c *Cache) FailFetch(t Ticket) bool {
	c.mu.Lock()
	if c.tickets[t.Key] != t.gen {
		c.mu.Unlock()
		return false
	}
	delete(c.tickets, t.Key)
	e := c.entryLocked(t.Key)
	e.loading = false
	if !e.loaded {
		delete(c.entries, t.Key)
	}
	c.mu.Unlock()

	c.notify(t.Key)
	return true
}

// Evict drops key and any fetch outstanding for it.
func (c *Cache) Evict(key Key) {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	delete(c.tickets, key)
	c.mu.Unlock()

	if ok {
		c.notify(key)
	}
}

// Reset drops every entry and outstanding fetch.
func (c *Cache) Reset() {
	c.mu.Lock()
	keys := c.keysLocked()
	c.entries = make(map[Key]*entry)
	c.tickets = make(map[Key]uint64)
	c.mu.Unlock()

	for _, k := range keys {
		c.notify(k)
	}
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keysLocked()
}

// Subscribe registers fn to be called with the key of every change.
func (c *Cache) Subscribe(fn func(Key)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextListener++
	id := c.nextListener
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Cache) notify(key Key) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Key), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// supersedeLocked invalidates the outstanding ticket for key.
func (c *Cache) supersedeLocked(key Key) {
	if _, ok := c.tickets[key]; !ok {
		return
	}
	delete(c.tickets, key)
	if e, ok := c.entries[key]; ok {
		e.loading = false
		if !e.loaded {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) keysLocked() []Key {
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func cloneItems(items []todo.Todo) []todo.Todo {
	if items == nil {
		return nil
	}
	out := make([]todo.Todo, len(items))
	copy(out, items)
	return out
}
