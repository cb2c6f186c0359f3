package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "REQUESTED"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusRequested, BookingStatusAccepted, BookingStatusRejected,
		BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// CustomBidServiceID marks bookings that were spawned by an accepted bid
// instead of a catalog service.
const CustomBidServiceID = "CUSTOM_BID"

// CanSetBookingStatus reports whether role may move a booking to status.
// Transitions are permissive within a role: the current status is not
// consulted.
func CanSetBookingStatus(role Role, status BookingStatus) bool {
	switch {
	case role.ActsAsProvider():
		switch status {
		case BookingStatusAccepted, BookingStatusRejected, BookingStatusConfirmed, BookingStatusCompleted:
			return true
		}
	case role == RoleCustomer:
		return status == BookingStatusCancelled
	}
	return false
}

type Booking struct {
	ID           string
	CustomerID   string
	CustomerName string
	ProviderID   string
	ServiceID    string
	ServiceName  string
	ServiceType  string
	Date         string
	Price        float64
	Status       BookingStatus
	BidRequestID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewBidBooking builds the confirmed booking produced by accepting bid on req.
func NewBidBooking(req *BidRequest, bid *Bid, now time.Time) Booking {
	return Booking{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		ProviderID:   bid.ProviderID,
		ServiceID:    CustomBidServiceID,
		ServiceName:  req.EventName + " (Custom Bid)",
		ServiceType:  req.EventType,
		Date:         req.Date,
		Price:        bid.Price,
		Status:       BookingStatusConfirmed,
		BidRequestID: req.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Service is a catalog listing a customer can book directly.
type Service struct {
	ID          string
	ProviderID  string
	Name        string
	ServiceType string
	Price       float64
}

func (s *Service) Validate() error {
	if strings.TrimSpace(s.ProviderID) == "" {
		return fmt.Errorf("%w: provider_id is required", ErrValidation)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}
