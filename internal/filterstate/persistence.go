// Package filterstate keeps the list's filter and sort choice in the query
// string of a Location, so it survives a reload.
package filterstate

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/url"

	"github.com/rpggio/checklist/internal/domain/todo"
)

// Param is the query parameter holding the encoded state.
const Param = "filter"

type encoded struct {
	OrderBy   todo.OrderBy `json:"orderBy"`
	Filter    todo.Filter  `json:"filter"`
	Ascending bool         `json:"isAscending"`
}

// Persistence loads and saves QueryParams through a Location.
type Persistence struct {
	loc    Location
	logger *slog.Logger
}

// New creates persistence over loc.
func New(loc Location, logger *slog.Logger) *Persistence {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Persistence{loc: loc, logger: logger}
}

// Load returns the saved params. Missing or unusable state yields defaults,
// field by field.
func (p *Persistence) Load() todo.QueryParams {
	values, err := url.ParseQuery(p.loc.Query())
	if err != nil {
		p.logger.Warn("unparseable query string, using default filter", "error", err)
		return todo.DefaultQueryParams()
	}
	raw := values.Get(Param)
	if raw == "" {
		return todo.DefaultQueryParams()
	}
	params, err := Decode(raw)
	if err != nil {
		p.logger.Warn("malformed filter state, using defaults", "value", raw, "error", err)
	}
	return params
}

// Save writes params into the location, keeping other query parameters.
func (p *Persistence) Save(params todo.QueryParams) {
	values, err := url.ParseQuery(p.loc.Query())
	if err != nil {
		values = url.Values{}
	}
	values.Set(Param, Encode(params))
	p.loc.Replace(values.Encode())
}

// Clear returns the location to "/", dropping the saved state.
func (p *Persistence) Clear() {
	if nav, ok := p.loc.(interface{ Navigate(string) }); ok {
		nav.Navigate("/")
		return
	}
	p.loc.Replace("")
}

// Encode renders params as the parameter value.
func Encode(params todo.QueryParams) string {
	raw, err := json.Marshal(encoded{
		OrderBy:   params.OrderBy,
		Filter:    params.Filter,
		Ascending: params.Ascending,
	})
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// Decode parses a parameter value. Fields that are missing or invalid take
// their default. A non-nil error means the value was not a JSON object at
// all or a field was invalid; the returned params are usable either way.
func Decode(raw string) (todo.QueryParams, error) {
	params := todo.DefaultQueryParams()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return params, err
	}

	var invalid error
	if v, ok := fields["orderBy"]; ok {
		var orderBy todo.OrderBy
		if err := json.Unmarshal(v, &orderBy); err == nil && orderBy.Valid() {
			params.OrderBy = orderBy
		} else {
			invalid = todo.ErrInvalidParams
		}
	}
	if v, ok := fields["filter"]; ok {
		var filter todo.Filter
		if err := json.Unmarshal(v, &filter); err == nil && filter.Valid() {
			params.Filter = filter
		} else {
			invalid = todo.ErrInvalidParams
		}
	}
	if v, ok := fields["isAscending"]; ok {
		var asc bool
		if err := json.Unmarshal(v, &asc); err == nil {
			params.Ascending = asc
		} else {
			invalid = todo.ErrInvalidParams
		}
	}
	return params, invalid
}
