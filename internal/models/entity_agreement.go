package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityAgreement is a corporate CLA covering contributions made by
// members of the named entity. Entity-capacity signatures only satisfy
// the gate while a valid agreement exists for their entity_ref.
type EntityAgreement struct {
	ID        string     `json:"id" db:"id"`
	EntityRef string     `json:"entity_ref" db:"entity_ref"`
	VersionID string     `json:"version_id" db:"version_id"`
	ExpiresAt *time.Time `json:"expires_at" db:"expires_at"` // nil means non-expiring
	Revoked   bool       `json:"revoked" db:"revoked"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// NewEntityAgreement creates a new EntityAgreement with a generated UUID
func NewEntityAgreement(entityRef, versionID string, expiresAt *time.Time) *EntityAgreement {
	now := time.Now()
	return &EntityAgreement{
		ID:        uuid.New().String(),
		EntityRef: entityRef,
		VersionID: versionID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsValid checks whether the agreement currently covers its entity
func (e *EntityAgreement) IsValid(now time.Time) bool {
	if e.Revoked {
		return false
	}
	if e.ExpiresAt != nil && now.After(*e.ExpiresAt) {
		return false
	}
	return true
}
