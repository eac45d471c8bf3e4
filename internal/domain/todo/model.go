package todo

import "time"

// Todo is one item of a user's list. ID and CreatedAt are assigned by the
// row store.
type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderBy names the column a list is sorted by.
type OrderBy string

const (
	OrderByTitle     OrderBy = "title"
	OrderByCompleted OrderBy = "completed"
	OrderByCreatedAt OrderBy = "created_at"
)

// Valid reports whether o is a known sort column.
func (o OrderBy) Valid() bool {
	switch o {
	case OrderByTitle, OrderByCompleted, OrderByCreatedAt:
		return true
	}
	return false
}

// Filter selects items by completion status.
type Filter string

const (
	FilterAll       Filter = "ALL"
	FilterCompleted Filter = "COMPLETED"
	FilterActive    Filter = "ACTIVE"
)

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterCompleted, FilterActive:
		return true
	}
	return false
}

// Completed returns the completion value the filter selects. ok is false
// for FilterAll, which selects both.
func (f Filter) Completed() (completed bool, ok bool) {
	switch f {
	case FilterCompleted:
		return true, true
	case FilterActive:
		return false, true
	}
	return false, false
}

// QueryParams governs which items are fetched and in what order. It is a
// value type: changing a field yields a different query.
type QueryParams struct {
	OrderBy   OrderBy `json:"orderBy"`
	Ascending bool    `json:"isAscending"`
	Filter    Filter  `json:"filter"`
}

// DefaultQueryParams returns the params used when nothing else is known.
func DefaultQueryParams() QueryParams {
	return QueryParams{
		OrderBy:   OrderByCreatedAt,
		Ascending: true,
		Filter:    FilterAll,
	}
}

// Validate checks that both enum fields hold known values.
func (p QueryParams) Validate() error {
	if !p.OrderBy.Valid() || !p.Filter.Valid() {
		return ErrInvalidParams
	}
	return nil
}
