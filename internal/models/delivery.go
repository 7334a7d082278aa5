package models

import (
	"time"

	"github.com/google/uuid"
)

// Delivery is the idempotency ledger entry for one webhook notification.
// The upstream transport is at-least-once; a delivery id seen twice is a no-op.
type Delivery struct {
	ID          string    `json:"id" db:"id"`
	DeliveryID  string    `json:"delivery_id" db:"delivery_id"`
	EventAction string    `json:"event_action" db:"event_action"`
	ReceivedAt  time.Time `json:"received_at" db:"received_at"`
}

// NewDelivery creates a new Delivery with a generated UUID
func NewDelivery(deliveryID, eventAction string) *Delivery {
	return &Delivery{
		ID:          uuid.New().String(),
		DeliveryID:  deliveryID,
		EventAction: eventAction,
		ReceivedAt:  time.Now(),
	}
}
