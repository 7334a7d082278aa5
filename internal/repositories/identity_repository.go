package repositories

import (
	"database/sql"
	"strings"
	"time"

	"github.com/clagate/clagate/internal/models"
)

type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create creates a new identity
func (r *IdentityRepository) Create(identity *models.Identity) error {
	query := `
		INSERT INTO identities (
			id, platform_account_id, username, entity_claim, superseded_by
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		identity.ID, identity.PlatformAccountID, identity.Username,
		identity.EntityClaim, identity.SupersededBy,
	)
	return err
}

// GetByID retrieves an identity by ID
func (r *IdentityRepository) GetByID(id string) (*models.Identity, error) {
	query := `
		SELECT id, platform_account_id, username, entity_claim, superseded_by, created_at, updated_at
		FROM identities WHERE id = ?
	`

	identity := &models.Identity{}
	err := r.db.QueryRow(query, id).Scan(
		&identity.ID, &identity.PlatformAccountID, &identity.Username,
		&identity.EntityClaim, &identity.SupersededBy, &identity.CreatedAt, &identity.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return identity, nil
}

// GetByAccountID retrieves an identity by platform account identifier
func (r *IdentityRepository) GetByAccountID(accountID string) (*models.Identity, error) {
	query := `
		SELECT id, platform_account_id, username, entity_claim, superseded_by, created_at, updated_at
		FROM identities WHERE platform_account_id = ?
	`

	identity := &models.Identity{}
	err := r.db.QueryRow(query, accountID).Scan(
		&identity.ID, &identity.PlatformAccountID, &identity.Username,
		&identity.EntityClaim, &identity.SupersededBy, &identity.CreatedAt, &identity.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return identity, nil
}

// Update updates an existing identity
func (r *IdentityRepository) Update(identity *models.Identity) error {
	query := `
		UPDATE identities SET
			username = ?, entity_claim = ?, superseded_by = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		identity.Username, identity.EntityClaim, identity.SupersededBy,
		time.Now(), identity.ID,
	)
	return err
}

// GetOrCreateByAccountID gets an identity by account id or creates a new one
func (r *IdentityRepository) GetOrCreateByAccountID(accountID, username string) (*models.Identity, error) {
	// Try to get existing identity first
	identity, err := r.GetByAccountID(accountID)
	if err == nil {
		return identity, nil
	}

	// If not found, create new identity
	if err == sql.ErrNoRows {
		identity = models.NewIdentity(accountID, username)
		if err := r.Create(identity); err != nil {
			// If creation fails due to unique constraint violation (race condition),
			// try to get the identity again
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				identity, err = r.GetByAccountID(accountID)
				if err == nil {
					return identity, nil
				}
			}
			return nil, err
		}
		return identity, nil
	}

	return nil, err
}
