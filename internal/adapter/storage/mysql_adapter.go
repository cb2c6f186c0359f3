package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// MySQLAdapter maps each collection to a table and filters natively on any
// combination of columns.
type MySQLAdapter struct {
	db *sqlx.DB
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Get(ctx context.Context, schema port.Schema, id string) (port.Fields, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE `id` = ?", selectList(schema), quote(schema.Collection))

	raw := make(map[string]any)
	err := m.db.QueryRowxContext(ctx, query, id).MapScan(raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, schema.Collection, id)
	}
	if err != nil {
		return nil, unavailable("query "+schema.Collection, err)
	}

	return decodeRow(schema, raw)
}

func (m *MySQLAdapter) Find(ctx context.Context, schema port.Schema, filter port.Filter) ([]port.Fields, error) {
	filter, err := schema.NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	for _, cond := range filter {
		where = append(where, quote(cond.Field)+" = ?")
		args = append(args, cond.Value)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectList(schema), quote(schema.Collection))
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := m.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query "+schema.Collection, err)
	}
	defer rows.Close()

	var out []port.Fields
	for rows.Next() {
		raw := make(map[string]any)
		if err := rows.MapScan(raw); err != nil {
			return nil, unavailable("scan "+schema.Collection, err)
		}
		rec, err := decodeRow(schema, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate "+schema.Collection, err)
	}

	return out, nil
}

func (m *MySQLAdapter) Insert(ctx context.Context, schema port.Schema, fields port.Fields) (string, error) {
	fields, err := schema.Normalize(fields)
	if err != nil {
		return "", err
	}
	schema.Complete(fields)

	id := uuid.NewString()

	cols := []string{quote(port.FieldID)}
	binds := []string{":" + port.FieldID}
	arg := map[string]any{port.FieldID: id}
	for _, col := range schema.Columns {
		cols = append(cols, quote(col.Name))
		binds = append(binds, ":"+col.Name)
		arg[col.Name] = fields[col.Name]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(schema.Collection), strings.Join(cols, ", "), strings.Join(binds, ", "))

	if _, err := m.db.NamedExecContext(ctx, query, arg); err != nil {
		return "", unavailable("insert "+schema.Collection, err)
	}

	return id, nil
}

func (m *MySQLAdapter) Update(ctx context.Context, schema port.Schema, id string, fields port.Fields) error {
	fields, err := schema.Normalize(fields)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		_, err := m.Get(ctx, schema, id)
		return err
	}

	sets := make([]string, 0, len(fields))
	arg := map[string]any{port.FieldID: id}
	for _, col := range schema.Columns {
		v, ok := fields[col.Name]
		if !ok {
			continue
		}
		sets = append(sets, quote(col.Name)+" = :"+col.Name)
		arg[col.Name] = v
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE `id` = :id", quote(schema.Collection), strings.Join(sets, ", "))

	result, err := m.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return unavailable("update "+schema.Collection, err)
	}

	// MySQL counts changed rows only, so an update that rewrites the same
	// values affects nothing.
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := m.Get(ctx, schema, id); err != nil {
			return err
		}
	}

	return nil
}

func (m *MySQLAdapter) CompareAndSwap(ctx context.Context, schema port.Schema, id, field string, expected, next int64) (bool, error) {
	if _, err := schema.CASColumn(field); err != nil {
		return false, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE `id` = ? AND %s = ?",
		quote(schema.Collection), quote(field), quote(field))

	result, err := m.db.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return false, unavailable("compare-and-swap "+schema.Collection, err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return true, nil
	}

	current, err := m.Get(ctx, schema, id)
	if err != nil {
		return false, err
	}
	return expected == next && current.Int(field) == expected, nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return unavailable("mysql ping", err)
	}
	return nil
}

func quote(ident string) string {
	return "`" + ident + "`"
}

func selectList(schema port.Schema) string {
	cols := make([]string, 0, len(schema.Columns)+1)
	cols = append(cols, quote(port.FieldID))
	for _, col := range schema.Columns {
		cols = append(cols, quote(col.Name))
	}
	return strings.Join(cols, ", ")
}

func decodeRow(schema port.Schema, raw map[string]any) (port.Fields, error) {
	out := make(port.Fields, len(schema.Columns)+1)

	id, err := sqlValue(port.KindString, raw[port.FieldID])
	if err != nil {
		return nil, fmt.Errorf("decode %s.id: %w", schema.Collection, err)
	}
	out[port.FieldID] = id

	for _, col := range schema.Columns {
		v, err := sqlValue(col.Kind, raw[col.Name])
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", schema.Collection, col.Name, err)
		}
		out[col.Name] = v
	}
	return out, nil
}

// sqlValue converts what the MySQL driver hands back, which depends on the
// protocol in use, to the canonical value for kind.
func sqlValue(kind port.Kind, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return port.Coerce(kind, nil)
	case []byte:
		return port.ParseValue(kind, string(val))
	case string:
		return port.ParseValue(kind, val)
	case int64:
		if kind == port.KindBool {
			return val != 0, nil
		}
		return port.Coerce(kind, val)
	}
	return port.Coerce(kind, v)
}
