package repositories

import (
	"database/sql"
	"strings"
	"time"

	"github.com/clagate/clagate/internal/models"
)

type SignatureRepository struct {
	db *sql.DB
}

func NewSignatureRepository(db *sql.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// Create inserts a new signature. The (identity_id, version_id) UNIQUE
// constraint is the store's duplicate guard.
func (r *SignatureRepository) Create(sig *models.Signature) error {
	query := `
		INSERT INTO signatures (
			id, identity_id, version_id, capacity, entity_ref, signed_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		sig.ID, sig.IdentityID, sig.VersionID, sig.Capacity, sig.EntityRef, sig.SignedAt,
	)
	return err
}

// GetByIdentityAndVersion retrieves the signature for one (identity, version) pair
func (r *SignatureRepository) GetByIdentityAndVersion(identityID, versionID string) (*models.Signature, error) {
	query := `
		SELECT id, identity_id, version_id, capacity, entity_ref, signed_at, created_at, updated_at
		FROM signatures WHERE identity_id = ? AND version_id = ?
	`

	sig := &models.Signature{}
	err := r.db.QueryRow(query, identityID, versionID).Scan(
		&sig.ID, &sig.IdentityID, &sig.VersionID, &sig.Capacity,
		&sig.EntityRef, &sig.SignedAt, &sig.CreatedAt, &sig.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return sig, nil
}

// GetByIdentity retrieves all signatures for an identity, newest first
func (r *SignatureRepository) GetByIdentity(identityID string) ([]*models.Signature, error) {
	query := `
		SELECT id, identity_id, version_id, capacity, entity_ref, signed_at, created_at, updated_at
		FROM signatures WHERE identity_id = ? ORDER BY signed_at DESC
	`

	rows, err := r.db.Query(query, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signatures []*models.Signature
	for rows.Next() {
		sig := &models.Signature{}
		err := rows.Scan(
			&sig.ID, &sig.IdentityID, &sig.VersionID, &sig.Capacity,
			&sig.EntityRef, &sig.SignedAt, &sig.CreatedAt, &sig.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		signatures = append(signatures, sig)
	}

	return signatures, rows.Err()
}

// UpdateCapacity upgrades an existing signature's capacity and entity reference
func (r *SignatureRepository) UpdateCapacity(id string, capacity models.SignatureCapacity, entityRef *string) error {
	query := `
		UPDATE signatures SET capacity = ?, entity_ref = ?, updated_at = ? WHERE id = ?
	`

	_, err := r.db.Exec(query, capacity, entityRef, time.Now(), id)
	return err
}

// CreateIfAbsent inserts the signature unless one already exists for the
// (identity, version) pair, in which case the existing record is returned.
// The bool reports whether a new row was created.
func (r *SignatureRepository) CreateIfAbsent(sig *models.Signature) (*models.Signature, bool, error) {
	if err := r.Create(sig); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			existing, getErr := r.GetByIdentityAndVersion(sig.IdentityID, sig.VersionID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return sig, true, nil
}
