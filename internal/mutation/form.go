package mutation

import (
	"sort"
	"sync"
)

// Form holds the pending title of the item being created.
type Form struct {
	mu    sync.Mutex
	value string
}

func (f *Form) Set(value string) {
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
}

func (f *Form) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Form) Reset() {
	f.Set("")
}

// Edits tracks which items are in edit mode.
type Edits struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func (e *Edits) Begin(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ids == nil {
		e.ids = make(map[int64]struct{})
	}
	e.ids[id] = struct{}{}
}

func (e *Edits) End(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.ids, id)
}

func (e *Edits) Editing(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.ids[id]
	return ok
}

// IDs returns the items in edit mode in ascending order.
func (e *Edits) IDs() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int64, 0, len(e.ids))
	for id := range e.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clear ends edit mode for every item.
func (e *Edits) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = nil
}
