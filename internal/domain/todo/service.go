package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/rpggio/checklist/internal/repository"
)

// Table and column names in the row store.
const (
	Table           = "todos"
	ColumnID        = "id"
	ColumnUserID    = "user_id"
	ColumnTitle     = "title"
	ColumnCompleted = "completed"
	ColumnCreatedAt = "created_at"
)

// Columns is the projection used for every read.
var Columns = []string{ColumnID, ColumnCreatedAt, ColumnTitle, ColumnCompleted}

// Service maps todo operations onto the generic row store.
type Service struct {
	rows   RowStore
	logger *slog.Logger
}

// NewService creates a new todo service.
func NewService(rows RowStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{rows: rows, logger: logger}
}

// List fetches the user's items matching params.
func (s *Service) List(ctx context.Context, userID string, params QueryParams) ([]Todo, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	where := []repository.Predicate{repository.Eq(ColumnUserID, userID)}
	if completed, ok := params.Filter.Completed(); ok {
		where = append(where, repository.Eq(ColumnCompleted, completed))
	}
	order := &repository.Order{Column: string(params.OrderBy), Ascending: params.Ascending}

	rows, err := s.rows.Select(ctx, Table, Columns, where, order)
	if err != nil {
		return nil, fmt.Errorf("selecting todos: %w", err)
	}

	todos := make([]Todo, 0, len(rows))
	for _, row := range rows {
		t, err := DecodeRow(row)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, nil
}

// Create inserts a new item and returns the stored row.
func (s *Service) Create(ctx context.Context, userID, title string) (Todo, error) {
	if userID == "" {
		return Todo{}, ErrMissingUser
	}
	if err := ValidateTitle(title); err != nil {
		return Todo{}, err
	}

	row, err := s.rows.Insert(ctx, Table, repository.Row{
		ColumnUserID: userID,
		ColumnTitle:  strings.TrimSpace(title),
	}, Columns)
	if err != nil {
		return Todo{}, fmt.Errorf("inserting todo: %w", err)
	}
	return DecodeRow(row)
}

// SetTitle renames an item.
func (s *Service) SetTitle(ctx context.Context, userID string, id int64, title string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	return s.update(ctx, userID, id, repository.Row{ColumnTitle: strings.TrimSpace(title)})
}

// SetCompleted sets an item's completion flag.
func (s *Service) SetCompleted(ctx context.Context, userID string, id int64, completed bool) error {
	return s.update(ctx, userID, id, repository.Row{ColumnCompleted: completed})
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if userID == "" {
		return ErrMissingUser
	}
	if err := s.rows.Delete(ctx, Table, ownedBy(userID, id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTodoNotFound
		}
		return fmt.Errorf("deleting todo: %w", err)
	}
	return nil
}

func (s *Service) update(ctx context.Context, userID string, id int64, patch repository.Row) error {
	if userID == "" {
		return ErrMissingUser
	}
	if err := s.rows.Update(ctx, Table, patch, ownedBy(userID, id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTodoNotFound
		}
		return fmt.Errorf("updating todo: %w", err)
	}
	return nil
}

func ownedBy(userID string, id int64) []repository.Predicate {
	return []repository.Predicate{
		repository.Eq(ColumnID, id),
		repository.Eq(ColumnUserID, userID),
	}
}

// DecodeRow converts a row from SQLite or from JSON into a Todo.
func DecodeRow(row repository.Row) (Todo, error) {
	id, err := toInt64(row[ColumnID])
	if err != nil {
		return Todo{}, fmt.Errorf("%w: id: %v", ErrMalformedRow, err)
	}
	title, ok := row[ColumnTitle].(string)
	if !ok {
		return Todo{}, fmt.Errorf("%w: title", ErrMalformedRow)
	}
	completed, err := toBool(row[ColumnCompleted])
	if err != nil {
		return Todo{}, fmt.Errorf("%w: completed: %v", ErrMalformedRow, err)
	}
	createdAt, err := toTime(row[ColumnCreatedAt])
	if err != nil {
		return Todo{}, fmt.Errorf("%w: created_at: %v", ErrMalformedRow, err)
	}
	return Todo{ID: id, Title: title, Completed: completed, CreatedAt: createdAt}, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integer %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case nil:
		return false, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unexpected type %T", v)
}
