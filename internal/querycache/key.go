package querycache

import (
	"encoding/json"

	"github.com/rpggio/checklist/internal/domain/todo"
)

// Key identifies one cached list.
type Key string

const keyScope = "todos:"

// keyFields fixes the field order of the encoded key.
type keyFields struct {
	OrderBy   todo.OrderBy `json:"orderBy"`
	Ascending bool         `json:"isAscending"`
	Filter    todo.Filter  `json:"filter"`
}

// BuildKey derives the cache key for params. Equal params always produce
// equal keys and distinct params distinct keys.
func BuildKey(params todo.QueryParams) Key {
	raw, err := json.Marshal(keyFields{
		OrderBy:   params.OrderBy,
		Ascending: params.Ascending,
		Filter:    params.Filter,
	})
	if err != nil {
		// Strings and a bool always marshal.
		panic(err)
	}
	return Key(keyScope + string(raw))
}
