package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// fakeClock hands out strictly increasing instants.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) kinds() []domain.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(n.sent))
	for _, note := range n.sent {
		out = append(out, note.Kind)
	}
	return out
}

// flakyStore fails selected operations with ErrStorageUnavailable. A count
// of -1 fails forever. afterInsert runs once each successful insert lands.
type flakyStore struct {
	port.Store

	mu          sync.Mutex
	failGets    map[string]int
	failUpdates map[string]int
	failInserts map[string]int
	loseSwaps   bool
	afterInsert func(collection string)
}

func newFlakyStore(inner port.Store) *flakyStore {
	return &flakyStore{
		Store:       inner,
		failGets:    make(map[string]int),
		failUpdates: make(map[string]int),
		failInserts: make(map[string]int),
	}
}

func (s *flakyStore) shouldFail(counts map[string]int, collection string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := counts[collection]
	if n == 0 {
		return false
	}
	if n > 0 {
		counts[collection] = n - 1
	}
	return true
}

func (s *flakyStore) Get(ctx context.Context, schema port.Schema, id string) (port.Fields, error) {
	if s.shouldFail(s.failGets, schema.Collection) {
		return nil, fmt.Errorf("%w: get %s", domain.ErrStorageUnavailable, schema.Collection)
	}
	return s.Store.Get(ctx, schema, id)
}

func (s *flakyStore) Insert(ctx context.Context, schema port.Schema, fields port.Fields) (string, error) {
	if s.shouldFail(s.failInserts, schema.Collection) {
		return "", fmt.Errorf("%w: insert %s", domain.ErrStorageUnavailable, schema.Collection)
	}
	id, err := s.Store.Insert(ctx, schema, fields)
	if err == nil && s.afterInsert != nil {
		s.afterInsert(schema.Collection)
	}
	return id, err
}

func (s *flakyStore) failNextGet(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGets[collection] = 1
}

func (s *flakyStore) Update(ctx context.Context, schema port.Schema, id string, fields port.Fields) error {
	if s.shouldFail(s.failUpdates, schema.Collection) {
		return fmt.Errorf("%w: update %s", domain.ErrStorageUnavailable, schema.Collection)
	}
	return s.Store.Update(ctx, schema, id, fields)
}

func (s *flakyStore) CompareAndSwap(ctx context.Context, schema port.Schema, id, field string, expected, next int64) (bool, error) {
	s.mu.Lock()
	lose := s.loseSwaps
	s.mu.Unlock()
	if lose && schema.Collection == port.CollectionPasses {
		return false, nil
	}
	return s.Store.CompareAndSwap(ctx, schema, id, field, expected, next)
}

type fixture struct {
	store       *flakyStore
	tables      *port.Tables
	profiles    *storage.ProfileDirectory
	catalog     *storage.Catalog
	notifier    *recordingNotifier
	gate        *Gate
	negotiation *NegotiationService
	bookings    *BookingService
	passes      *PassService
}

type fixtureOptions struct {
	negotiation NegotiationConfig
	pass        PassConfig
}

func newFixture(t *testing.T, opts ...func(*fixtureOptions)) *fixture {
	return newFixtureWithStore(t, storage.NewMemoryAdapter(), opts...)
}

func newFixtureWithStore(t *testing.T, backend port.Store, opts ...func(*fixtureOptions)) *fixture {
	t.Helper()

	o := fixtureOptions{
		negotiation: NegotiationConfig{AcceptMaxAttempts: 3, AcceptRetryDelay: time.Millisecond},
		pass:        PassConfig{PurchaseMaxAttempts: 5, PurchaseRetryDelay: time.Millisecond},
	}
	for _, opt := range opts {
		opt(&o)
	}

	store := newFlakyStore(backend)
	tables := port.NewTables(store)
	profiles := storage.NewProfileDirectory(tables)
	catalog := storage.NewCatalog(tables)
	notifier := &recordingNotifier{}
	logger := zap.NewNop()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	gate := NewGate(profiles, logger)

	negotiation := NewNegotiationService(gate, tables, notifier, logger, o.negotiation)
	negotiation.now = clock.Now
	bookings := NewBookingService(gate, tables, catalog, notifier, logger)
	bookings.now = clock.Now
	passes := NewPassService(gate, tables, storage.NewMemoryIdempotency(time.Hour), notifier, logger, o.pass)
	passes.now = clock.Now

	return &fixture{
		store:       store,
		tables:      tables,
		profiles:    profiles,
		catalog:     catalog,
		notifier:    notifier,
		gate:        gate,
		negotiation: negotiation,
		bookings:    bookings,
		passes:      passes,
	}
}

func (f *fixture) user(t *testing.T, role domain.Role, name string) string {
	t.Helper()
	id, err := f.profiles.CreateProfile(context.Background(), domain.Profile{
		Role:          role,
		DisplayName:   name,
		Email:         name + "@example.com",
		ProfileStatus: domain.ProfileStatusActive,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) openRequest(t *testing.T, customerID string) *domain.BidRequest {
	t.Helper()
	req, err := f.negotiation.OpenRequest(context.Background(), customerID, OpenRequestInput{
		EventName: "Birthday",
		Date:      "2025-06-01",
		Budget:    500,
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) placeBid(t *testing.T, providerID, requestID string, price float64) *domain.Bid {
	t.Helper()
	bid, err := f.negotiation.PlaceBid(context.Background(), providerID, requestID, PlaceBidInput{Price: price, Pitch: "x"})
	require.NoError(t, err)
	return bid
}
