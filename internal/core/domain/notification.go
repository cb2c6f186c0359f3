package domain

import "time"

type NotificationKind string

const (
	NotificationBidPlaced            NotificationKind = "bid.placed"
	NotificationBidAccepted          NotificationKind = "bid.accepted"
	NotificationBidRejected          NotificationKind = "bid.rejected"
	NotificationBookingCreated       NotificationKind = "booking.created"
	NotificationBookingStatusChanged NotificationKind = "booking.status_changed"
	NotificationPassPurchased        NotificationKind = "pass.purchased"
)

type Notification struct {
	Kind        NotificationKind `json:"kind"`
	RecipientID string           `json:"recipient_id"`
	EntityID    string           `json:"entity_id"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}
