package storage

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// MemoryAdapter keeps every collection in process. It backs tests and the
// "memory" backend.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string]map[string]port.Fields
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string]map[string]port.Fields)}
}

func (m *MemoryAdapter) Get(ctx context.Context, schema port.Schema, id string) (port.Fields, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[schema.Collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, schema.Collection, id)
	}
	return withID(rec, id), nil
}

func (m *MemoryAdapter) Find(ctx context.Context, schema port.Schema, filter port.Filter) ([]port.Fields, error) {
	filter, err := schema.NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []port.Fields
	for id, rec := range m.data[schema.Collection] {
		if filter.Match(rec) {
			out = append(out, withID(rec, id))
		}
	}
	return out, nil
}

func (m *MemoryAdapter) Insert(ctx context.Context, schema port.Schema, fields port.Fields) (string, error) {
	fields, err := schema.Normalize(fields)
	if err != nil {
		return "", err
	}
	schema.Complete(fields)

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.data[schema.Collection]
	if !ok {
		coll = make(map[string]port.Fields)
		m.data[schema.Collection] = coll
	}
	coll[id] = fields
	return id, nil
}

func (m *MemoryAdapter) Update(ctx context.Context, schema port.Schema, id string, fields port.Fields) error {
	fields, err := schema.Normalize(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.data[schema.Collection][id]
	if !ok {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, schema.Collection, id)
	}
	maps.Copy(rec, fields)
	return nil
}

func (m *MemoryAdapter) CompareAndSwap(ctx context.Context, schema port.Schema, id, field string, expected, next int64) (bool, error) {
	if _, err := schema.CASColumn(field); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.data[schema.Collection][id]
	if !ok {
		return false, fmt.Errorf("%w: %s %s", domain.ErrNotFound, schema.Collection, id)
	}
	if rec.Int(field) != expected {
		return false, nil
	}
	rec[field] = next
	return true, nil
}

func (m *MemoryAdapter) Ping(ctx context.Context) error {
	return nil
}

func withID(rec port.Fields, id string) port.Fields {
	out := make(port.Fields, len(rec)+1)
	maps.Copy(out, rec)
	out[port.FieldID] = id
	return out
}

// MemoryIdempotency is the in-process counterpart of the Redis SETNX guard.
type MemoryIdempotency struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]time.Time
}

func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	return &MemoryIdempotency{ttl: ttl, keys: make(map[string]time.Time)}
}

func (m *MemoryIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if exp, ok := m.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.keys[key] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, key)
	return nil
}
