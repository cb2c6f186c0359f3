package port

import (
	"context"
	"time"
)

// FieldID is the key under which every stored record carries its id.
const FieldID = "id"

// TimeLayout is fixed width so encoded instants sort as strings.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Fields is a flat record. Values are string, int64, float64 or bool once
// they have been through a Schema.
type Fields map[string]any

func (f Fields) ID() string {
	return f.String(FieldID)
}

func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

func (f Fields) Int(name string) int64 {
	switch v := f[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (f Fields) Float(name string) float64 {
	switch v := f[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (f Fields) Bool(name string) bool {
	b, _ := f[name].(bool)
	return b
}

func (f Fields) Time(name string) time.Time {
	return ParseTime(f.String(name))
}

// Condition is a single equality test.
type Condition struct {
	Field string
	Value any
}

// Filter is a conjunction of equality conditions. An empty filter matches
// every record.
type Filter []Condition

func Where(field string, value any) Filter {
	return Filter{{Field: field, Value: value}}
}

func (f Filter) And(field string, value any) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Condition{Field: field, Value: value})
}

// Store is the persistence port. Every backend must give identical results
// for the same calls, whatever filtering it can do natively.
type Store interface {
	// Get returns the record with id, or domain.ErrNotFound.
	Get(ctx context.Context, schema Schema, id string) (Fields, error)

	// Find returns every record matching filter, in no particular order.
	Find(ctx context.Context, schema Schema, filter Filter) ([]Fields, error)

	// Insert stores a new record and returns its generated id.
	Insert(ctx context.Context, schema Schema, fields Fields) (string, error)

	// Update overwrites the given fields of an existing record.
	Update(ctx context.Context, schema Schema, id string, fields Fields) error

	// CompareAndSwap sets an integer field to next only if it still holds
	// expected. It reports whether the write was applied.
	CompareAndSwap(ctx context.Context, schema Schema, id, field string, expected, next int64) (bool, error)

	Ping(ctx context.Context) error
}
