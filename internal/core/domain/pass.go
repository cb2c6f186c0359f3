package domain

import (
	"fmt"
	"strings"
	"time"
)

const DefaultPassCapacity = 100

type Pass struct {
	ID          string
	CreatorID   string
	CreatorName string
	EventName   string
	EventDate   string
	StartTime   string
	Location    string
	Price       float64
	PassType    string
	Capacity    int
	SoldCount   int
	IsActive    bool
	CreatedAt   time.Time
}

func (p *Pass) Validate() error {
	if strings.TrimSpace(p.EventName) == "" {
		return fmt.Errorf("%w: event_name is required", ErrValidation)
	}
	if strings.TrimSpace(p.EventDate) == "" {
		return fmt.Errorf("%w: event_date is required", ErrValidation)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	if strings.TrimSpace(p.PassType) == "" {
		return fmt.Errorf("%w: pass_type is required", ErrValidation)
	}
	if p.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be greater than 0", ErrValidation)
	}
	return nil
}

func (p *Pass) Remaining() int {
	return p.Capacity - p.SoldCount
}

// CanSell compares against Remaining so a huge quantity cannot wrap around.
func (p *Pass) CanSell(quantity int) bool {
	return quantity > 0 && quantity <= p.Remaining()
}

type PurchaseStatus string

const PurchaseStatusConfirmed PurchaseStatus = "CONFIRMED"

// PassPurchase is an append-only ledger entry; it is never updated.
type PassPurchase struct {
	ID           string
	PassID       string
	BuyerID      string
	EventName    string
	PassType     string
	Quantity     int
	TotalPrice   float64
	AttendeeName string
	Email        string
	Status       PurchaseStatus
	PurchasedAt  time.Time
}
