package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

func TestOpenRequest_Success(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")

	req, err := f.negotiation.OpenRequest(context.Background(), customer, OpenRequestInput{
		EventName:  "Birthday",
		Date:       "2025-06-01",
		Budget:     500,
		GuestCount: 20,
		Location:   "Hall A",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, domain.BidRequestStatusOpen, req.Status)
	assert.Equal(t, domain.DefaultEventType, req.EventType)
	assert.Equal(t, "Cam", req.CustomerName)
	assert.Empty(t, req.SelectedBidID)
	assert.Empty(t, req.Bids)

	stored, err := f.tables.BidRequests.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, customer, stored.CustomerID)
	assert.Equal(t, 20, stored.GuestCount)
}

func TestOpenRequest_Validation(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")

	cases := map[string]OpenRequestInput{
		"missing event name": {Date: "2025-06-01", Budget: 500},
		"missing date":       {EventName: "Birthday", Budget: 500},
		"missing budget":     {EventName: "Birthday", Date: "2025-06-01"},
		"negative budget":    {EventName: "Birthday", Date: "2025-06-01", Budget: -1},
		"negative guests":    {EventName: "Birthday", Date: "2025-06-01", Budget: 1, GuestCount: -3},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.negotiation.OpenRequest(context.Background(), customer, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	all, err := f.tables.BidRequests.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenRequest_OnlyCustomers(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider, "Pat")

	_, err := f.negotiation.OpenRequest(context.Background(), provider, OpenRequestInput{
		EventName: "Birthday", Date: "2025-06-01", Budget: 500,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNegotiation_AcceptScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")

	req := f.openRequest(t, customer)
	assert.Equal(t, domain.BidRequestStatusOpen, req.Status)

	bid := f.placeBid(t, provider, req.ID, 450)
	assert.Equal(t, domain.BidStatusPending, bid.Status)
	assert.Equal(t, "Pat", bid.ProviderName)

	res, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	require.NoError(t, err)
	require.NotNil(t, res.Booking)

	assert.Equal(t, 450.0, res.Booking.Price)
	assert.Equal(t, domain.BookingStatusConfirmed, res.Booking.Status)
	assert.Equal(t, req.ID, res.Booking.BidRequestID)
	assert.Equal(t, domain.CustomBidServiceID, res.Booking.ServiceID)
	assert.Equal(t, "Birthday (Custom Bid)", res.Booking.ServiceName)
	assert.Equal(t, provider, res.Booking.ProviderID)
	assert.Equal(t, customer, res.Booking.CustomerID)
	assert.Equal(t, "2025-06-01", res.Booking.Date)

	stored, err := f.tables.BidRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidRequestStatusClosed, stored.Status)
	assert.Equal(t, bid.ID, stored.SelectedBidID)
	assert.False(t, stored.AcceptanceInFlight())

	storedBid, err := f.tables.Bids.Get(ctx, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusAccepted, storedBid.Status)

	booking, err := f.tables.Bookings.Get(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 450.0, booking.Price)

	assert.Contains(t, f.notifier.kinds(), domain.NotificationBidPlaced)
	assert.Contains(t, f.notifier.kinds(), domain.NotificationBidAccepted)
}

func TestListRequests_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, domain.RoleCustomer, "Alice")
	bob := f.user(t, domain.RoleCustomer, "Bob")
	p1 := f.user(t, domain.RoleProvider, "P1")
	p2 := f.user(t, domain.RoleFreelancer, "P2")

	first := f.openRequest(t, alice)
	second := f.openRequest(t, alice)
	other := f.openRequest(t, bob)
	closed := f.openRequest(t, bob)

	f.placeBid(t, p1, first.ID, 100)
	f.placeBid(t, p2, first.ID, 90)
	winner := f.placeBid(t, p1, closed.ID, 80)
	_, err := f.negotiation.RespondToBid(ctx, bob, closed.ID, winner.ID, domain.BidActionAccept)
	require.NoError(t, err)

	mine, err := f.negotiation.ListRequests(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)
	assert.Len(t, mine[1].Bids, 2)

	open, err := f.negotiation.ListRequests(ctx, p2)
	require.NoError(t, err)
	var ids []string
	for _, r := range open {
		ids = append(ids, r.ID)
		if r.ID == first.ID {
			require.Len(t, r.Bids, 1)
			assert.Equal(t, p2, r.Bids[0].ProviderID)
		}
	}
	assert.Equal(t, []string{other.ID, second.ID, first.ID}, ids)
}

func TestGetRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, domain.RoleCustomer, "Alice")
	stranger := f.user(t, domain.RoleCustomer, "Bob")
	provider := f.user(t, domain.RoleProvider, "Pat")

	req := f.openRequest(t, owner)
	f.placeBid(t, provider, req.ID, 100)

	got, err := f.negotiation.GetRequest(ctx, owner, req.ID)
	require.NoError(t, err)
	assert.Len(t, got.Bids, 1)

	got, err = f.negotiation.GetRequest(ctx, provider, req.ID)
	require.NoError(t, err)
	assert.Len(t, got.Bids, 1)

	_, err = f.negotiation.GetRequest(ctx, stranger, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.negotiation.GetRequest(ctx, owner, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceBid_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)

	_, err := f.negotiation.PlaceBid(ctx, customer, req.ID, PlaceBidInput{Price: 10, Pitch: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.negotiation.PlaceBid(ctx, provider, req.ID, PlaceBidInput{Price: 0, Pitch: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.negotiation.PlaceBid(ctx, provider, req.ID, PlaceBidInput{Price: 10, Pitch: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.negotiation.PlaceBid(ctx, provider, "missing", PlaceBidInput{Price: 10, Pitch: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceBid_ClosedRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	require.NoError(t, err)

	_, err = f.negotiation.PlaceBid(ctx, provider, req.ID, PlaceBidInput{Price: 90, Pitch: "cheaper"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPlaceBid_RecheckFailureWithdrawsBid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)

	f.store.afterInsert = func(collection string) {
		if collection == port.CollectionBids {
			f.store.failNextGet(port.CollectionBidRequests)
		}
	}
	_, err := f.negotiation.PlaceBid(ctx, provider, req.ID, PlaceBidInput{Price: 90, Pitch: "x"})
	f.store.afterInsert = nil
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, domain.ErrConflict)

	bids, err := f.tables.Bids.Find(ctx, port.Where("request_id", req.ID))
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, domain.BidStatusRejected, bids[0].Status)
	assert.NotContains(t, f.notifier.kinds(), domain.NotificationBidPlaced)
}

func TestRespondToBid_Ownership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, domain.RoleCustomer, "Alice")
	stranger := f.user(t, domain.RoleCustomer, "Bob")
	provider := f.user(t, domain.RoleProvider, "Pat")

	req := f.openRequest(t, owner)
	other := f.openRequest(t, stranger)
	bid := f.placeBid(t, provider, req.ID, 100)
	foreign := f.placeBid(t, provider, other.ID, 100)

	_, err := f.negotiation.RespondToBid(ctx, stranger, req.ID, bid.ID, domain.BidActionAccept)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.negotiation.RespondToBid(ctx, provider, req.ID, bid.ID, domain.BidActionAccept)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.negotiation.RespondToBid(ctx, owner, req.ID, "missing", domain.BidActionReject)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.negotiation.RespondToBid(ctx, owner, "missing", bid.ID, domain.BidActionReject)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.negotiation.RespondToBid(ctx, owner, req.ID, foreign.ID, domain.BidActionAccept)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.negotiation.RespondToBid(ctx, owner, req.ID, bid.ID, domain.BidAction("MAYBE"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRespondToBid_RejectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	for range 2 {
		res, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionReject)
		require.NoError(t, err)
		assert.Equal(t, domain.BidStatusRejected, res.Bid.Status)
		assert.Nil(t, res.Booking)

		stored, err := f.tables.Bids.Get(ctx, bid.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BidStatusRejected, stored.Status)
	}

	stored, err := f.tables.BidRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidRequestStatusOpen, stored.Status)
}

func TestRespondToBid_RejectAcceptedBid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	require.NoError(t, err)

	_, err = f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionReject)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRespondToBid_RejectWhileAcceptanceInFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	p1 := f.user(t, domain.RoleProvider, "P1")
	p2 := f.user(t, domain.RoleProvider, "P2")
	req := f.openRequest(t, customer)
	first := f.placeBid(t, p1, req.ID, 100)
	second := f.placeBid(t, p2, req.ID, 90)

	// Leave the request claimed by an acceptance that never finished.
	f.store.failUpdates[port.CollectionBidRequests] = -1
	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, first.ID, domain.BidActionAccept)
	require.ErrorIs(t, err, domain.ErrPartialFailure)
	f.store.failUpdates[port.CollectionBidRequests] = 0

	for _, bid := range []*domain.Bid{first, second} {
		_, err = f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionReject)
		assert.ErrorIs(t, err, domain.ErrConflict)
	}

	stored, err := f.tables.Bids.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusAccepted, stored.Status)

	stored, err = f.tables.Bids.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidStatusPending, stored.Status)
}

func TestRespondToBid_RejectReleasesClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	p1 := f.user(t, domain.RoleProvider, "P1")
	p2 := f.user(t, domain.RoleProvider, "P2")
	req := f.openRequest(t, customer)
	first := f.placeBid(t, p1, req.ID, 100)
	second := f.placeBid(t, p2, req.ID, 90)

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, first.ID, domain.BidActionReject)
	require.NoError(t, err)

	stored, err := f.tables.BidRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, stored.AcceptanceInFlight())

	res, err := f.negotiation.RespondToBid(ctx, customer, req.ID, second.ID, domain.BidActionAccept)
	require.NoError(t, err)
	assert.NotNil(t, res.Booking)
	assertSingleAcceptance(t, f, req.ID)
}

func TestRespondToBid_SecondAcceptConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	p1 := f.user(t, domain.RoleProvider, "P1")
	p2 := f.user(t, domain.RoleProvider, "P2")
	req := f.openRequest(t, customer)
	first := f.placeBid(t, p1, req.ID, 100)
	second := f.placeBid(t, p2, req.ID, 90)

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, first.ID, domain.BidActionAccept)
	require.NoError(t, err)

	_, err = f.negotiation.RespondToBid(ctx, customer, req.ID, second.ID, domain.BidActionAccept)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.negotiation.RespondToBid(ctx, customer, req.ID, first.ID, domain.BidActionAccept)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assertSingleAcceptance(t, f, req.ID)
}

func TestRespondToBid_RejectedBidCannotBeAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionReject)
	require.NoError(t, err)

	_, err = f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRespondToBid_ConcurrentAccepts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	req := f.openRequest(t, customer)

	const bidders = 10
	bids := make([]*domain.Bid, bidders)
	for i := range bidders {
		bids[i] = f.placeBid(t, f.user(t, domain.RoleProvider, "P"), req.ID, float64(100+i))
	}

	var (
		wg        sync.WaitGroup
		accepted  atomic.Int32
		conflicts atomic.Int32
	)
	for _, bid := range bids {
		wg.Add(1)
		go func(bidID string) {
			defer wg.Done()
			_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bidID, domain.BidActionAccept)
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(bid.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int32(bidders-1), conflicts.Load())
	assertSingleAcceptance(t, f, req.ID)

	bookings, err := f.tables.Bookings.Find(ctx, port.Where("bid_request_id", req.ID))
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestRespondToBid_SiblingPolicy(t *testing.T) {
	for _, rejectSiblings := range []bool{false, true} {
		name := "leave siblings pending"
		want := domain.BidStatusPending
		if rejectSiblings {
			name = "reject siblings"
			want = domain.BidStatusRejected
		}

		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, func(o *fixtureOptions) {
				o.negotiation.RejectSiblingsOnAccept = rejectSiblings
			})
			customer := f.user(t, domain.RoleCustomer, "Cam")
			req := f.openRequest(t, customer)
			winner := f.placeBid(t, f.user(t, domain.RoleProvider, "P1"), req.ID, 100)
			sibling := f.placeBid(t, f.user(t, domain.RoleProvider, "P2"), req.ID, 120)

			_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, winner.ID, domain.BidActionAccept)
			require.NoError(t, err)

			stored, err := f.tables.Bids.Get(ctx, sibling.ID)
			require.NoError(t, err)
			assert.Equal(t, want, stored.Status)
		})
	}
}

func TestRespondToBid_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	f.store.failUpdates[port.CollectionBids] = 2
	f.store.failUpdates[port.CollectionBidRequests] = 2

	res, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.BidRequestStatusClosed, res.Request.Status)

	assertSingleAcceptance(t, f, req.ID)
}

func TestRespondToBid_PartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	f.store.failUpdates[port.CollectionBidRequests] = -1

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	require.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	var pf *domain.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, domain.StepCloseRequest, pf.Step)
	assert.Equal(t, req.ID, pf.RequestID)
	assert.Equal(t, bid.ID, pf.BidID)

	booking, err := f.tables.Bookings.Get(ctx, pf.BookingID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, booking.BidRequestID)

	// The request stays claimed, so nobody can accept another bid on it.
	stored, err := f.tables.BidRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, stored.AcceptanceInFlight())

	f.store.failUpdates[port.CollectionBidRequests] = 0
	other := f.user(t, domain.RoleProvider, "Other")
	_, err = f.negotiation.PlaceBid(ctx, other, req.ID, PlaceBidInput{Price: 50, Pitch: "late"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRespondToBid_PartialFailureOnBid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	f.store.failUpdates[port.CollectionBids] = -1

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)

	var pf *domain.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, domain.StepMarkBidAccepted, pf.Step)
	assert.NotEmpty(t, pf.BookingID)
}

func TestRespondToBid_BookingFailureReleasesClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer, "Cam")
	provider := f.user(t, domain.RoleProvider, "Pat")
	req := f.openRequest(t, customer)
	bid := f.placeBid(t, provider, req.ID, 100)

	f.store.failInserts[port.CollectionBookings] = 1

	_, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, domain.ErrPartialFailure)

	stored, err := f.tables.BidRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidRequestStatusOpen, stored.Status)
	assert.False(t, stored.AcceptanceInFlight())

	res, err := f.negotiation.RespondToBid(ctx, customer, req.ID, bid.ID, domain.BidActionAccept)
	require.NoError(t, err)
	assert.NotNil(t, res.Booking)
}

// assertSingleAcceptance checks that a closed request names exactly the one
// accepted bid.
func assertSingleAcceptance(t *testing.T, f *fixture, requestID string) {
	t.Helper()
	ctx := context.Background()

	req, err := f.tables.BidRequests.Get(ctx, requestID)
	require.NoError(t, err)
	bids, err := f.tables.Bids.Find(ctx, port.Where("request_id", requestID))
	require.NoError(t, err)

	var accepted []string
	for _, b := range bids {
		if b.Status == domain.BidStatusAccepted {
			accepted = append(accepted, b.ID)
		}
	}

	assert.Equal(t, req.Status == domain.BidRequestStatusClosed, req.SelectedBidID != "")
	require.Len(t, accepted, 1)
	assert.Equal(t, req.SelectedBidID, accepted[0])
}
