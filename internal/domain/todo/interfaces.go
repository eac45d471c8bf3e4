package todo

import (
	"context"

	"github.com/rpggio/checklist/internal/repository"
)

// RowStore provides the remote row operations the todo service needs.
type RowStore interface {
	Select(ctx context.Context, table string, columns []string, where []repository.Predicate, order *repository.Order) ([]repository.Row, error)
	Insert(ctx context.Context, table string, row repository.Row, returning []string) (repository.Row, error)
	Update(ctx context.Context, table string, patch repository.Row, where []repository.Predicate) error
	Delete(ctx context.Context, table string, where []repository.Predicate) error
}
