package port

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

type Column struct {
	Name string
	Kind Kind
	// Indexed columns can drive a lookup on backends that only query by a
	// single field.
	Indexed bool
}

// Schema is the allow-list of columns for one collection.
type Schema struct {
	Collection string
	Columns    []Column
}

func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (s Schema) Indexed() []Column {
	var out []Column
	for _, c := range s.Columns {
		if c.Indexed {
			out = append(out, c)
		}
	}
	return out
}

// Normalize checks every field against the schema and coerces its value to
// the column kind. Unknown fields are rejected.
func (s Schema) Normalize(fields Fields) (Fields, error) {
	out := make(Fields, len(fields))
	for name, value := range fields {
		col, ok := s.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q in %s", domain.ErrValidation, name, s.Collection)
		}
		v, err := Coerce(col.Kind, value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", domain.ErrValidation, name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Complete fills every column missing from fields with its zero value, so
// all backends match filters on unset columns the same way.
func (s Schema) Complete(fields Fields) Fields {
	for _, c := range s.Columns {
		if _, ok := fields[c.Name]; !ok {
			fields[c.Name] = zero(c.Kind)
		}
	}
	return fields
}

// CASColumn returns the column a compare-and-swap may target: an integer
// column that drives no index.
func (s Schema) CASColumn(name string) (Column, error) {
	col, ok := s.Column(name)
	if !ok {
		return Column{}, fmt.Errorf("%w: unknown field %q in %s", domain.ErrValidation, name, s.Collection)
	}
	if col.Kind != KindInt || col.Indexed {
		return Column{}, fmt.Errorf("%w: field %q does not support compare-and-swap", domain.ErrValidation, name)
	}
	return col, nil
}

func (s Schema) NormalizeFilter(filter Filter) (Filter, error) {
	out := make(Filter, 0, len(filter))
	for _, cond := range filter {
		col, ok := s.Column(cond.Field)
		if !ok {
			return nil, fmt.Errorf("%w: unknown filter field %q in %s", domain.ErrValidation, cond.Field, s.Collection)
		}
		v, err := Coerce(col.Kind, cond.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: filter field %q: %v", domain.ErrValidation, cond.Field, err)
		}
		out = append(out, Condition{Field: cond.Field, Value: v})
	}
	return out, nil
}

// Match reports whether fields satisfy every condition of a normalized filter.
func (f Filter) Match(fields Fields) bool {
	for _, cond := range f {
		if fields[cond.Field] != cond.Value {
			return false
		}
	}
	return true
}

// Coerce converts value to the canonical Go type for kind. Named types such
// as domain statuses are accepted by their underlying kind.
func Coerce(kind Kind, value any) (any, error) {
	if value == nil {
		return zero(kind), nil
	}
	rv := reflect.ValueOf(value)
	switch kind {
	case KindString:
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case KindInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint()), nil
		}
	case KindFloat:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		}
	case KindBool:
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	}
	return nil, fmt.Errorf("cannot use %T as %s", value, kind)
}

func zero(kind Kind) any {
	switch kind {
	case KindInt:
		return int64(0)
	case KindFloat:
		return float64(0)
	case KindBool:
		return false
	}
	return ""
}

// FormatValue renders a coerced value as text for backends that store
// strings.
func FormatValue(kind Kind, value any) string {
	switch kind {
	case KindInt:
		v, _ := value.(int64)
		return strconv.FormatInt(v, 10)
	case KindFloat:
		v, _ := value.(float64)
		return strconv.FormatFloat(v, 'f', -1, 64)
	case KindBool:
		v, _ := value.(bool)
		return strconv.FormatBool(v)
	}
	v, _ := value.(string)
	return v
}

// ParseValue is the inverse of FormatValue.
func ParseValue(kind Kind, raw string) (any, error) {
	switch kind {
	case KindInt:
		if raw == "" {
			return int64(0), nil
		}
		return strconv.ParseInt(raw, 10, 64)
	case KindFloat:
		if raw == "" {
			return float64(0), nil
		}
		return strconv.ParseFloat(raw, 64)
	case KindBool:
		if raw == "" {
			return false, nil
		}
		return strconv.ParseBool(raw)
	}
	return raw, nil
}
