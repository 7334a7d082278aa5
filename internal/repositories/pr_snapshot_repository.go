package repositories

import (
	"database/sql"
	"sync"
	"time"

	"github.com/clagate/clagate/internal/models"
)

type PRSnapshotRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewPRSnapshotRepository(db *sql.DB) *PRSnapshotRepository {
	return &PRSnapshotRepository{db: db}
}

// Create creates a new PR snapshot
func (r *PRSnapshotRepository) Create(snapshot *models.PRSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO pr_snapshots (
			id, repo_owner, repo_name, pr_number, head_sha, identity_ids,
			evaluated_version, gate_state, prev_gate_state, gate_detail,
			last_delivery_id, archived
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		snapshot.ID, snapshot.RepoOwner, snapshot.RepoName, snapshot.PRNumber,
		snapshot.HeadSHA, snapshot.IdentityIDs, snapshot.EvaluatedVersion,
		snapshot.GateState, snapshot.PrevGateState, snapshot.GateDetail,
		snapshot.LastDeliveryID, snapshot.Archived,
	)
	return err
}

// GetByID retrieves a snapshot by ID
func (r *PRSnapshotRepository) GetByID(id string) (*models.PRSnapshot, error) {
	query := selectSnapshot + ` WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByRepoPR retrieves the snapshot for one pull request
func (r *PRSnapshotRepository) GetByRepoPR(owner, name string, number int) (*models.PRSnapshot, error) {
	query := selectSnapshot + ` WHERE repo_owner = ? AND repo_name = ? AND pr_number = ?`
	return r.scanOne(r.db.QueryRow(query, owner, name, number))
}

// GetOpenByIdentityID retrieves every unarchived snapshot whose identity
// set references the given identity. Used for signature fan-out.
func (r *PRSnapshotRepository) GetOpenByIdentityID(identityID string) ([]*models.PRSnapshot, error) {
	query := selectSnapshot + ` WHERE archived = 0 AND identity_ids LIKE ?`

	rows, err := r.db.Query(query, `%"`+identityID+`"%`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// GetOpen retrieves all unarchived snapshots
func (r *PRSnapshotRepository) GetOpen() ([]*models.PRSnapshot, error) {
	query := selectSnapshot + ` WHERE archived = 0 ORDER BY created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// Update updates an existing snapshot
func (r *PRSnapshotRepository) Update(snapshot *models.PRSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		UPDATE pr_snapshots SET
			head_sha = ?, identity_ids = ?, evaluated_version = ?, gate_state = ?,
			prev_gate_state = ?, gate_detail = ?, last_delivery_id = ?, archived = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		snapshot.HeadSHA, snapshot.IdentityIDs, snapshot.EvaluatedVersion,
		snapshot.GateState, snapshot.PrevGateState, snapshot.GateDetail,
		snapshot.LastDeliveryID, snapshot.Archived, time.Now(), snapshot.ID,
	)
	return err
}

// Archive marks the snapshot archived when the PR closes or merges
func (r *PRSnapshotRepository) Archive(id string) error {
	query := `UPDATE pr_snapshots SET archived = 1, updated_at = ? WHERE id = ?`
	_, err := r.db.Exec(query, time.Now(), id)
	return err
}

const selectSnapshot = `
	SELECT id, repo_owner, repo_name, pr_number, head_sha, identity_ids,
	       evaluated_version, gate_state, prev_gate_state, gate_detail,
	       last_delivery_id, archived, created_at, updated_at
	FROM pr_snapshots`

func (r *PRSnapshotRepository) scanOne(row *sql.Row) (*models.PRSnapshot, error) {
	snapshot := &models.PRSnapshot{}
	err := row.Scan(
		&snapshot.ID, &snapshot.RepoOwner, &snapshot.RepoName, &snapshot.PRNumber,
		&snapshot.HeadSHA, &snapshot.IdentityIDs, &snapshot.EvaluatedVersion,
		&snapshot.GateState, &snapshot.PrevGateState, &snapshot.GateDetail,
		&snapshot.LastDeliveryID, &snapshot.Archived, &snapshot.CreatedAt, &snapshot.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (r *PRSnapshotRepository) scanMany(rows *sql.Rows) ([]*models.PRSnapshot, error) {
	var snapshots []*models.PRSnapshot
	for rows.Next() {
		snapshot := &models.PRSnapshot{}
		err := rows.Scan(
			&snapshot.ID, &snapshot.RepoOwner, &snapshot.RepoName, &snapshot.PRNumber,
			&snapshot.HeadSHA, &snapshot.IdentityIDs, &snapshot.EvaluatedVersion,
			&snapshot.GateState, &snapshot.PrevGateState, &snapshot.GateDetail,
			&snapshot.LastDeliveryID, &snapshot.Archived, &snapshot.CreatedAt, &snapshot.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}
