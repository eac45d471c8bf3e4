package mutation

import "github.com/rpggio/checklist/internal/domain/todo"

// Op names a mutation.
type Op string

const (
	OpCreate Op = "create"
	OpRename Op = "rename"
	OpToggle Op = "toggle"
	OpDelete Op = "delete"
)

// Status is the outcome of a mutation.
type Status string

const (
	// Confirmed: the remote store accepted the change and the cache reflects it.
	Confirmed Status = "confirmed"
	// RolledBack: the remote store failed and an optimistic change was undone.
	RolledBack Status = "rolled_back"
	// Failed: the remote store failed; nothing had been applied locally.
	Failed Status = "failed"
	// Rejected: validation or session gating refused the mutation before any
	// remote call.
	Rejected Status = "rejected"
)

// Result reports what a mutation did.
type Result struct {
	Op     Op
	Status Status
	Item   todo.Todo
	Err    error
}

// OK reports whether the mutation was confirmed.
func (r Result) OK() bool {
	return r.Status == Confirmed
}

// Snapshot is the cached list captured before an optimistic change.
type Snapshot struct {
	Items  []todo.Todo
	Exists bool
}
