package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity represents a canonical contributor across events and signatures
type Identity struct {
	ID                string    `json:"id" db:"id"`
	PlatformAccountID string    `json:"platform_account_id" db:"platform_account_id"`
	Username          string    `json:"username" db:"username"`
	EntityClaim       *string   `json:"entity_claim" db:"entity_claim"` // advisory until backed by an entity agreement
	SupersededBy      *string   `json:"superseded_by" db:"superseded_by"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// NewIdentity creates a new Identity with a generated UUID
func NewIdentity(platformAccountID, username string) *Identity {
	now := time.Now()
	return &Identity{
		ID:                uuid.New().String(),
		PlatformAccountID: platformAccountID,
		Username:          username,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsSuperseded checks if this identity has been merged into another
func (i *Identity) IsSuperseded() bool {
	return i.SupersededBy != nil && *i.SupersededBy != ""
}
