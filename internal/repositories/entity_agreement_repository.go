package repositories

import (
	"database/sql"
	"time"

	"github.com/clagate/clagate/internal/models"
)

type EntityAgreementRepository struct {
	db *sql.DB
}

func NewEntityAgreementRepository(db *sql.DB) *EntityAgreementRepository {
	return &EntityAgreementRepository{db: db}
}

// Create creates a new entity agreement
func (r *EntityAgreementRepository) Create(agreement *models.EntityAgreement) error {
	query := `
		INSERT INTO entity_agreements (
			id, entity_ref, version_id, expires_at, revoked
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		agreement.ID, agreement.EntityRef, agreement.VersionID,
		agreement.ExpiresAt, agreement.Revoked,
	)
	return err
}

// GetByEntityRef retrieves the agreement covering one entity
func (r *EntityAgreementRepository) GetByEntityRef(entityRef string) (*models.EntityAgreement, error) {
	query := `
		SELECT id, entity_ref, version_id, expires_at, revoked, created_at, updated_at
		FROM entity_agreements WHERE entity_ref = ?
	`

	agreement := &models.EntityAgreement{}
	err := r.db.QueryRow(query, entityRef).Scan(
		&agreement.ID, &agreement.EntityRef, &agreement.VersionID,
		&agreement.ExpiresAt, &agreement.Revoked, &agreement.CreatedAt, &agreement.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return agreement, nil
}

// Update updates an existing entity agreement
func (r *EntityAgreementRepository) Update(agreement *models.EntityAgreement) error {
	query := `
		UPDATE entity_agreements SET
			version_id = ?, expires_at = ?, revoked = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		agreement.VersionID, agreement.ExpiresAt, agreement.Revoked,
		time.Now(), agreement.ID,
	)
	return err
}

// Upsert creates or refreshes the agreement for an entity
func (r *EntityAgreementRepository) Upsert(agreement *models.EntityAgreement) error {
	existing, err := r.GetByEntityRef(agreement.EntityRef)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if existing != nil {
		agreement.ID = existing.ID
		agreement.CreatedAt = existing.CreatedAt
		return r.Update(agreement)
	}

	return r.Create(agreement)
}
