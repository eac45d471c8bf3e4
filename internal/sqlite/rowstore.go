package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/checklist/internal/repository"
)

// ColumnType is the Go-side type of a column.
type ColumnType int

const (
	ColumnInt ColumnType = iota
	ColumnText
	ColumnBool
	ColumnTime
)

// TableSchema whitelists a table and its columns for the row store.
// Time columns missing from an insert default to the current time.
type TableSchema struct {
	Name    string
	Columns map[string]ColumnType
}

// TodosSchema describes the todos table.
var TodosSchema = TableSchema{
	Name: "todos",
	Columns: map[string]ColumnType{
		"id":         ColumnInt,
		"user_id":    ColumnText,
		"title":      ColumnText,
		"completed":  ColumnBool,
		"created_at": ColumnTime,
	},
}

// RowStore implements repository.RowStore for SQLite
type RowStore struct {
	db     *DB
	tables map[string]TableSchema
	now    func() time.Time
}

// NewRowStore creates a row store over tables, or over TodosSchema when none
// are given.
func NewRowStore(db *DB, tables ...TableSchema) *RowStore {
	if len(tables) == 0 {
		tables = []TableSchema{TodosSchema}
	}
	byName := make(map[string]TableSchema, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	return &RowStore{db: db, tables: byName, now: time.Now}
}

// Select returns matching rows
func (s *RowStore) Select(ctx context.Context, table string, columns []string, where []repository.Predicate, order *repository.Order) ([]repository.Row, error) {
	schema, err := s.schema(table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = schema.columnNames()
	}
	if err := schema.checkColumns(columns); err != nil {
		return nil, err
	}

	clause, args, err := schema.whereClause(where)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(columns, ", "), schema.Name, clause)
	if order != nil {
		if _, ok := schema.Columns[order.Column]; !ok {
			return nil, fmt.Errorf("order by %q: %w", order.Column, repository.ErrInvalidInput)
		}
		dir := "DESC"
		if order.Ascending {
			dir = "ASC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", order.Column, dir)
		// id breaks ties between equal sort values.
		if _, ok := schema.Columns["id"]; ok && order.Column != "id" {
			query += ", id ASC"
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	defer rows.Close()

	var out []repository.Row
	for rows.Next() {
		row, err := schema.scan(rows, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", table, err)
	}
	if out == nil {
		out = []repository.Row{}
	}
	return out, nil
}

// Insert adds a row and returns the stored values of the returning columns
func (s *RowStore) Insert(ctx context.Context, table string, row repository.Row, returning []string) (repository.Row, error) {
	schema, err := s.schema(table)
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("empty insert into %s: %w", table, repository.ErrInvalidInput)
	}
	if len(returning) == 0 {
		returning = schema.columnNames()
	}
	if err := schema.checkColumns(returning); err != nil {
		return nil, err
	}

	values := make(repository.Row, len(row))
	for k, v := range row {
		values[k] = v
	}
	for name, typ := range schema.Columns {
		if _, ok := values[name]; !ok && typ == ColumnTime {
			values[name] = s.now()
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names))
	for _, name := range names {
		arg, err := schema.encode(name, values[name])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		schema.Name,
		strings.Join(names, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "),
		strings.Join(returning, ", "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			if isUniqueViolation(err) {
				return nil, repository.ErrConflict
			}
			return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil, fmt.Errorf("insert into %s returned no row", table)
	}
	return schema.scan(rows, returning)
}

// Update applies patch to matching rows
func (s *RowStore) Update(ctx context.Context, table string, patch repository.Row, where []repository.Predicate) error {
	schema, err := s.schema(table)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return fmt.Errorf("empty update of %s: %w", table, repository.ErrInvalidInput)
	}

	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+len(where))
	for _, name := range names {
		arg, err := schema.encode(name, patch[name])
		if err != nil {
			return err
		}
		sets = append(sets, name+" = ?")
		args = append(args, arg)
	}

	clause, whereArgs, err := schema.whereClause(where)
	if err != nil {
		return err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", schema.Name, strings.Join(sets, ", "), clause)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return requireAffected(result)
}

// Delete removes matching rows
func (s *RowStore) Delete(ctx context.Context, table string, where []repository.Predicate) error {
	schema, err := s.schema(table)
	if err != nil {
		return err
	}
	clause, args, err := schema.whereClause(where)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s%s", schema.Name, clause), args...)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *RowStore) schema(table string) (TableSchema, error) {
	schema, ok := s.tables[table]
	if !ok {
		return TableSchema{}, fmt.Errorf("table %q: %w", table, repository.ErrInvalidInput)
	}
	return schema, nil
}

func (t TableSchema) columnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t TableSchema) checkColumns(columns []string) error {
	for _, c := range columns {
		if _, ok := t.Columns[c]; !ok {
			return fmt.Errorf("column %s.%s: %w", t.Name, c, repository.ErrInvalidInput)
		}
	}
	return nil
}

func (t TableSchema) whereClause(where []repository.Predicate) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(where))
	args := make([]any, 0, len(where))
	for _, p := range where {
		arg, err := t.encode(p.Column, p.Value)
		if err != nil {
			return "", nil, err
		}
		if arg == nil {
			conds = append(conds, p.Column+" IS NULL")
			continue
		}
		conds = append(conds, p.Column+" = ?")
		args = append(args, arg)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// encode converts a Go or JSON-decoded value into a driver argument.
func (t TableSchema) encode(column string, v any) (any, error) {
	typ, ok := t.Columns[column]
	if !ok {
		return nil, fmt.Errorf("column %s.%s: %w", t.Name, column, repository.ErrInvalidInput)
	}
	if v == nil {
		return nil, nil
	}
	bad := func() error {
		return fmt.Errorf("value %v (%T) for %s.%s: %w", v, v, t.Name, column, repository.ErrInvalidInput)
	}

	switch typ {
	case ColumnInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, bad()
			}
			return int64(n), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, bad()
			}
			return i, nil
		}
	case ColumnText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case ColumnBool:
		if b, ok := v.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case ColumnTime:
		switch tv := v.(type) {
		case time.Time:
			return formatTime(tv), nil
		case string:
			parsed, err := parseTime(tv)
			if err != nil {
				return nil, bad()
			}
			return formatTime(parsed), nil
		}
	}
	return nil, bad()
}

type scanner interface {
	Scan(dest ...any) error
}

func (t TableSchema) scan(rows scanner, columns []string) (repository.Row, error) {
	dest := make([]any, len(columns))
	for i, c := range columns {
		switch t.Columns[c] {
		case ColumnInt, ColumnBool:
			dest[i] = new(sql.NullInt64)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan %s row: %w", t.Name, err)
	}

	row := make(repository.Row, len(columns))
	for i, c := range columns {
		switch t.Columns[c] {
		case ColumnInt:
			n := dest[i].(*sql.NullInt64)
			row[c] = nullable(n.Valid, n.Int64)
		case ColumnBool:
			n := dest[i].(*sql.NullInt64)
			row[c] = nullable(n.Valid, n.Int64 != 0)
		case ColumnText:
			s := dest[i].(*sql.NullString)
			row[c] = nullable(s.Valid, s.String)
		case ColumnTime:
			s := dest[i].(*sql.NullString)
			if !s.Valid {
				row[c] = nil
				continue
			}
			parsed, err := parseTime(s.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s.%s: %w", t.Name, c, err)
			}
			row[c] = parsed
		}
	}
	return row, nil
}

func nullable[T any](valid bool, v T) any {
	if !valid {
		return nil
	}
	return v
}
