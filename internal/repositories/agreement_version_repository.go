package repositories

import (
	"database/sql"
	"sync"

	"github.com/clagate/clagate/internal/models"
)

type AgreementVersionRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewAgreementVersionRepository(db *sql.DB) *AgreementVersionRepository {
	return &AgreementVersionRepository{db: db}
}

// Publish appends a new version and moves the current pointer in one transaction.
// The version number advances monotonically from the highest existing one.
func (r *AgreementVersionRepository) Publish(class models.AgreementClass, textSHA string) (*models.AgreementVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(version) FROM agreement_versions`).Scan(&maxVersion); err != nil {
		return nil, err
	}

	next := 1
	if maxVersion.Valid {
		next = int(maxVersion.Int64) + 1
	}

	version := models.NewAgreementVersion(next, class, textSHA)
	version.IsCurrent = true

	if _, err := tx.Exec(`UPDATE agreement_versions SET is_current = 0 WHERE is_current = 1`); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO agreement_versions (
			id, version, class, text_sha, effective_at, is_current
		) VALUES (?, ?, ?, ?, ?, 1)
	`
	if _, err := tx.Exec(query, version.ID, version.Version, version.Class, version.TextSHA, version.EffectiveAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return version, nil
}

// GetCurrent retrieves the version the current pointer designates
func (r *AgreementVersionRepository) GetCurrent() (*models.AgreementVersion, error) {
	query := `
		SELECT id, version, class, text_sha, effective_at, is_current, created_at
		FROM agreement_versions WHERE is_current = 1
	`

	return r.scanOne(r.db.QueryRow(query))
}

// GetByVersion retrieves a version by its number
func (r *AgreementVersionRepository) GetByVersion(version int) (*models.AgreementVersion, error) {
	query := `
		SELECT id, version, class, text_sha, effective_at, is_current, created_at
		FROM agreement_versions WHERE version = ?
	`

	return r.scanOne(r.db.QueryRow(query, version))
}

// GetByID retrieves a version by ID
func (r *AgreementVersionRepository) GetByID(id string) (*models.AgreementVersion, error) {
	query := `
		SELECT id, version, class, text_sha, effective_at, is_current, created_at
		FROM agreement_versions WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

func (r *AgreementVersionRepository) scanOne(row *sql.Row) (*models.AgreementVersion, error) {
	version := &models.AgreementVersion{}
	err := row.Scan(
		&version.ID, &version.Version, &version.Class, &version.TextSHA,
		&version.EffectiveAt, &version.IsCurrent, &version.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return version, nil
}
