package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// runStoreSuite checks the behaviour every backend must share. Values are
// unique per run so the suite also works against a shared database.
func runStoreSuite(t *testing.T, store port.Store) {
	ctx := context.Background()

	insertBid := func(t *testing.T, requestID, providerID, status string) string {
		t.Helper()
		id, err := store.Insert(ctx, port.BidSchema, port.Fields{
			"request_id":  requestID,
			"provider_id": providerID,
			"price":       450.5,
			"pitch":       "we do it well",
			"status":      status,
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)
		return id
	}

	t.Run("insert then get", func(t *testing.T) {
		requestID := uuid.NewString()
		id := insertBid(t, requestID, "provider-1", "PENDING")

		got, err := store.Get(ctx, port.BidSchema, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID())
		assert.Equal(t, requestID, got.String("request_id"))
		assert.Equal(t, 450.5, got.Float("price"))
		assert.Equal(t, "PENDING", got.String("status"))
		assert.Equal(t, "", got.String("provider_name"))
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, port.BidSchema, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("insert rejects unknown field", func(t *testing.T) {
		_, err := store.Insert(ctx, port.BidSchema, port.Fields{"request_id": "r", "color": "red"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("find with several conditions", func(t *testing.T) {
		requestID := uuid.NewString()
		mine := insertBid(t, requestID, "provider-a", "PENDING")
		insertBid(t, requestID, "provider-b", "PENDING")
		insertBid(t, uuid.NewString(), "provider-a", "PENDING")

		got, err := store.Find(ctx, port.BidSchema, port.Where("request_id", requestID).And("provider_id", "provider-a"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, mine, got[0].ID())
	})

	t.Run("find on unindexed field", func(t *testing.T) {
		requestID := uuid.NewString()
		pitch := "pitch-" + uuid.NewString()
		id, err := store.Insert(ctx, port.BidSchema, port.Fields{"request_id": requestID, "pitch": pitch, "price": 10.0})
		require.NoError(t, err)
		insertBid(t, requestID, "provider-z", "PENDING")

		got, err := store.Find(ctx, port.BidSchema, port.Where("pitch", pitch))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID())
	})

	t.Run("find on bool and named values", func(t *testing.T) {
		creator := uuid.NewString()
		active, err := store.Insert(ctx, port.PassSchema, port.Fields{"creator_id": creator, "is_active": true, "capacity": 5})
		require.NoError(t, err)
		_, err = store.Insert(ctx, port.PassSchema, port.Fields{"creator_id": creator, "is_active": false, "capacity": 5})
		require.NoError(t, err)

		got, err := store.Find(ctx, port.PassSchema, port.Where("creator_id", creator).And("is_active", true))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, active, got[0].ID())
		assert.Equal(t, int64(5), got[0].Int("capacity"))
	})

	t.Run("find with empty filter", func(t *testing.T) {
		id := insertBid(t, uuid.NewString(), "provider-1", "PENDING")

		got, err := store.Find(ctx, port.BidSchema, nil)
		require.NoError(t, err)

		var ids []string
		for _, f := range got {
			ids = append(ids, f.ID())
		}
		assert.Contains(t, ids, id)
	})

	t.Run("update moves index entries", func(t *testing.T) {
		customer := uuid.NewString()
		id, err := store.Insert(ctx, port.BidRequestSchema, port.Fields{"customer_id": customer, "status": "OPEN"})
		require.NoError(t, err)

		require.NoError(t, store.Update(ctx, port.BidRequestSchema, id, port.Fields{
			"status":          domain.BidRequestStatusClosed,
			"selected_bid_id": "bid-1",
		}))

		open, err := store.Find(ctx, port.BidRequestSchema, port.Where("customer_id", customer).And("status", "OPEN"))
		require.NoError(t, err)
		assert.Empty(t, open)

		closed, err := store.Find(ctx, port.BidRequestSchema, port.Where("status", "CLOSED").And("customer_id", customer))
		require.NoError(t, err)
		require.Len(t, closed, 1)
		assert.Equal(t, "bid-1", closed[0].String("selected_bid_id"))
	})

	t.Run("update with unchanged values", func(t *testing.T) {
		id := insertBid(t, uuid.NewString(), "provider-1", "REJECTED")
		require.NoError(t, store.Update(ctx, port.BidSchema, id, port.Fields{"status": "REJECTED"}))
	})

	t.Run("update missing record", func(t *testing.T) {
		err := store.Update(ctx, port.BidSchema, uuid.NewString(), port.Fields{"status": "REJECTED"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update rejects unknown field", func(t *testing.T) {
		id := insertBid(t, uuid.NewString(), "provider-1", "PENDING")
		err := store.Update(ctx, port.BidSchema, id, port.Fields{"notes": "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("compare and swap", func(t *testing.T) {
		id, err := store.Insert(ctx, port.PassSchema, port.Fields{"capacity": 10, "sold_count": 3})
		require.NoError(t, err)

		ok, err := store.CompareAndSwap(ctx, port.PassSchema, id, "sold_count", 2, 4)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.CompareAndSwap(ctx, port.PassSchema, id, "sold_count", 3, 4)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.CompareAndSwap(ctx, port.PassSchema, id, "sold_count", 4, 4)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.Get(ctx, port.PassSchema, id)
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.Int("sold_count"))
	})

	t.Run("compare and swap missing record", func(t *testing.T) {
		_, err := store.CompareAndSwap(ctx, port.PassSchema, uuid.NewString(), "sold_count", 0, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("compare and swap needs an integer column", func(t *testing.T) {
		id, err := store.Insert(ctx, port.PassSchema, port.Fields{"capacity": 1})
		require.NoError(t, err)

		_, err = store.CompareAndSwap(ctx, port.PassSchema, id, "price", 0, 1)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("concurrent compare and swap loses no increment", func(t *testing.T) {
		id, err := store.Insert(ctx, port.PassSchema, port.Fields{"capacity": 1000})
		require.NoError(t, err)

		const writers = 20
		var wg sync.WaitGroup
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					rec, err := store.Get(ctx, port.PassSchema, id)
					if err != nil {
						return
					}
					cur := rec.Int("sold_count")
					ok, err := store.CompareAndSwap(ctx, port.PassSchema, id, "sold_count", cur, cur+1)
					if err != nil || ok {
						return
					}
				}
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, port.PassSchema, id)
		require.NoError(t, err)
		assert.Equal(t, int64(writers), got.Int("sold_count"))
	})
}
