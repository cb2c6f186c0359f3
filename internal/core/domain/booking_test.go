package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanSetBookingStatus(t *testing.T) {
	providerSet := []BookingStatus{BookingStatusAccepted, BookingStatusRejected, BookingStatusConfirmed, BookingStatusCompleted}

	for _, role := range []Role{RoleProvider, RoleFreelancer} {
		for _, s := range providerSet {
			assert.True(t, CanSetBookingStatus(role, s), "%s -> %s", role, s)
		}
		assert.False(t, CanSetBookingStatus(role, BookingStatusCancelled))
		assert.False(t, CanSetBookingStatus(role, BookingStatusRequested))
	}

	assert.True(t, CanSetBookingStatus(RoleCustomer, BookingStatusCancelled))
	for _, s := range providerSet {
		assert.False(t, CanSetBookingStatus(RoleCustomer, s))
	}

	for _, role := range []Role{RoleAdmin, RoleJobSeeker} {
		assert.False(t, CanSetBookingStatus(role, BookingStatusCancelled))
		assert.False(t, CanSetBookingStatus(role, BookingStatusCompleted))
	}
}

func TestNewBidBooking(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	req := &BidRequest{ID: "r1", CustomerID: "c1", CustomerName: "Cam", EventName: "Birthday", EventType: "PARTY", Date: "2025-06-01"}
	bid := &Bid{ID: "b1", ProviderID: "p1", Price: 450}

	b := NewBidBooking(req, bid, now)

	assert.Equal(t, BookingStatusConfirmed, b.Status)
	assert.Equal(t, 450.0, b.Price)
	assert.Equal(t, "r1", b.BidRequestID)
	assert.Equal(t, CustomBidServiceID, b.ServiceID)
	assert.Equal(t, "Birthday (Custom Bid)", b.ServiceName)
	assert.Equal(t, "PARTY", b.ServiceType)
	assert.Equal(t, now, b.CreatedAt)
}

func TestBidRequest_AcceptanceInFlight(t *testing.T) {
	r := BidRequest{Version: 0}
	assert.False(t, r.AcceptanceInFlight())
	r.Version = 1
	assert.True(t, r.AcceptanceInFlight())
	r.Version = 2
	assert.False(t, r.AcceptanceInFlight())
}

func TestPass_CanSell(t *testing.T) {
	p := Pass{Capacity: 10, SoldCount: 8}

	assert.True(t, p.CanSell(2))
	assert.False(t, p.CanSell(3))
	assert.False(t, p.CanSell(0))
	assert.False(t, p.CanSell(-1))
	assert.Equal(t, 2, p.Remaining())
}

func TestPass_CanSellHugeQuantity(t *testing.T) {
	p := Pass{Capacity: 10, SoldCount: 1}

	assert.False(t, p.CanSell(math.MaxInt))
	assert.False(t, p.CanSell(math.MaxInt-1))
}
