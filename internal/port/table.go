package port

import "context"

// Codec maps a domain record to stored fields and back. Encode must not
// emit the id; the store owns it.
type Codec[T any] struct {
	Encode func(T) Fields
	Decode func(Fields) T
}

// Table binds a Store to one schema and one record type.
type Table[T any] struct {
	store  Store
	schema Schema
	codec  Codec[T]
}

func NewTable[T any](store Store, schema Schema, codec Codec[T]) *Table[T] {
	return &Table[T]{store: store, schema: schema, codec: codec}
}

func (t *Table[T]) Schema() Schema {
	return t.schema
}

func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	fields, err := t.store.Get(ctx, t.schema, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.codec.Decode(fields), nil
}

func (t *Table[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	rows, err := t.store.Find(ctx, t.schema, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, t.codec.Decode(row))
	}
	return out, nil
}

func (t *Table[T]) Insert(ctx context.Context, record T) (string, error) {
	return t.store.Insert(ctx, t.schema, t.codec.Encode(record))
}

func (t *Table[T]) Update(ctx context.Context, id string, fields Fields) error {
	return t.store.Update(ctx, t.schema, id, fields)
}

func (t *Table[T]) CompareAndSwap(ctx context.Context, id, field string, expected, next int64) (bool, error) {
	return t.store.CompareAndSwap(ctx, t.schema, id, field, expected, next)
}
