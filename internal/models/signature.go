package models

import (
	"time"

	"github.com/google/uuid"
)

// SignatureCapacity is the legal capacity a signature was given under
type SignatureCapacity string

const (
	CapacityIndividual SignatureCapacity = "individual"
	CapacityEntity     SignatureCapacity = "entity"
)

// Signature records one identity accepting one agreement version.
// At most one row exists per (identity, version); a later agreement
// version never invalidates a recorded signature for audit purposes.
type Signature struct {
	ID         string            `json:"id" db:"id"`
	IdentityID string            `json:"identity_id" db:"identity_id"`
	VersionID  string            `json:"version_id" db:"version_id"`
	Capacity   SignatureCapacity `json:"capacity" db:"capacity"`
	EntityRef  *string           `json:"entity_ref" db:"entity_ref"`
	SignedAt   time.Time         `json:"signed_at" db:"signed_at"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`

	// VersionNotCurrent is set when the signature was recorded against a
	// superseded version. Informational only, not persisted.
	VersionNotCurrent bool `json:"version_not_current,omitempty" db:"-"`
}

// NewSignature creates a new Signature with a generated UUID
func NewSignature(identityID, versionID string, capacity SignatureCapacity, entityRef *string) *Signature {
	now := time.Now()
	return &Signature{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		VersionID:  versionID,
		Capacity:   capacity,
		EntityRef:  entityRef,
		SignedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SignatureStatus is the gate-facing projection of an identity's standing
// against one agreement version.
type SignatureStatus struct {
	State     SignatureState `json:"state"`
	EntityRef string         `json:"entity_ref,omitempty"`
}

// SignatureState enumerates the possible standings
type SignatureState string

const (
	StateUnsigned         SignatureState = "unsigned"
	StateSignedIndividual SignatureState = "signed-individual"
	StateSignedEntity     SignatureState = "signed-entity"
)
