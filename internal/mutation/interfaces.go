package mutation

import (
	"context"
	"log/slog"

	"github.com/rpggio/checklist/internal/domain/todo"
)

// Remote performs the persistent half of each mutation.
type Remote interface {
	Create(ctx context.Context, userID, title string) (todo.Todo, error)
	SetTitle(ctx context.Context, userID string, id int64, title string) error
	SetCompleted(ctx context.Context, userID string, id int64, completed bool) error
	Delete(ctx context.Context, userID string, id int64) error
}

// Notifier is told about every mutation whose remote step failed.
type Notifier interface {
	MutationFailed(op Op, id int64, err error)
}

// LogNotifier reports failures to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) MutationFailed(op Op, id int64, err error) {
	if n.Logger == nil {
		return
	}
	n.Logger.Error("mutation failed", "op", string(op), "todo_id", id, "error", err)
}
