package domain

import (
	"fmt"
	"strings"
	"time"
)

type BidRequestStatus string

const (
	BidRequestStatusOpen   BidRequestStatus = "OPEN"
	BidRequestStatusClosed BidRequestStatus = "CLOSED"
)

const DefaultEventType = "GENERAL"

type BidRequest struct {
	ID                  string
	CustomerID          string
	CustomerName        string
	EventName           string
	EventType           string
	Date                string
	Location            string
	GuestCount          int
	Budget              float64
	IsFreelancerRequest bool
	Status              BidRequestStatus
	SelectedBidID       string
	// Version is even while the request is idle and odd while an acceptance
	// holds it.
	Version   int64
	CreatedAt time.Time

	// Bids is filled by listings; it is never persisted on the request.
	Bids []Bid
}

func (r *BidRequest) Validate() error {
	if strings.TrimSpace(r.EventName) == "" {
		return fmt.Errorf("%w: event_name is required", ErrValidation)
	}
	if strings.TrimSpace(r.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if r.Budget <= 0 {
		return fmt.Errorf("%w: budget must be greater than 0", ErrValidation)
	}
	if r.GuestCount < 0 {
		return fmt.Errorf("%w: guest_count must not be negative", ErrValidation)
	}
	return nil
}

func (r *BidRequest) IsOpen() bool {
	return r.Status == BidRequestStatusOpen
}

func (r *BidRequest) AcceptanceInFlight() bool {
	return r.Version%2 != 0
}

type BidStatus string

const (
	BidStatusPending  BidStatus = "PENDING"
	BidStatusAccepted BidStatus = "ACCEPTED"
	BidStatusRejected BidStatus = "REJECTED"
)

type Bid struct {
	ID           string
	RequestID    string
	ProviderID   string
	ProviderName string
	Price        float64
	Pitch        string
	Status       BidStatus
	CreatedAt    time.Time
}

func (b *Bid) Validate() error {
	if b.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	if strings.TrimSpace(b.Pitch) == "" {
		return fmt.Errorf("%w: pitch is required", ErrValidation)
	}
	return nil
}

type BidAction string

const (
	BidActionAccept BidAction = "ACCEPT"
	BidActionReject BidAction = "REJECT"
)

func (a BidAction) Valid() bool {
	return a == BidActionAccept || a == BidActionReject
}
