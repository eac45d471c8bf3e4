package repository

import "context"

// Row is a single table row keyed by column name.
type Row map[string]any

// Predicate is an equality condition on one column.
type Predicate struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// Eq builds an equality predicate.
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Value: value}
}

// Order sorts a selection by one column.
type Order struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// RowStore is the remote persistence backend: a generic row store with
// equality predicates and single-column ordering.
type RowStore interface {
	Select(ctx context.Context, table string, columns []string, where []Predicate, order *Order) ([]Row, error)
	Insert(ctx context.Context, table string, row Row, returning []string) (Row, error)
	Update(ctx context.Context, table string, patch Row, where []Predicate) error
	Delete(ctx context.Context, table string, where []Predicate) error
}
