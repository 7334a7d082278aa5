package repositories

import (
	"database/sql"
	"sync"
	"time"

	"github.com/clagate/clagate/internal/models"
)

type JobRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job
func (r *JobRepository) Create(job *models.Job) error {
	query := `
		INSERT INTO jobs (
			id, snapshot_id, job_type, status, attempts, error_message,
			started_at, completed_at, worker_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		job.ID, job.SnapshotID, job.JobType, job.Status, job.Attempts,
		job.ErrorMessage, job.StartedAt, job.CompletedAt, job.WorkerID,
	)
	return err
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(id string) (*models.Job, error) {
	query := selectJob + ` WHERE id = ?`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update updates an existing job
func (r *JobRepository) Update(job *models.Job) error {
	query := `
		UPDATE jobs SET
			status = ?, attempts = ?, error_message = ?, started_at = ?,
			completed_at = ?, worker_id = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		job.Status, job.Attempts, job.ErrorMessage, job.StartedAt,
		job.CompletedAt, job.WorkerID, time.Now(), job.ID,
	)
	return err
}

// GetNextPendingJob retrieves the next pending job of a specific type (FIFO)
// and atomically marks it in-progress for the claiming worker.
func (r *JobRepository) GetNextPendingJob(jobType models.JobType, workerID string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := selectJob + `
		WHERE status = ? AND job_type = ?
		ORDER BY created_at ASC
		LIMIT 1
	`

	job := &models.Job{}
	err = tx.QueryRow(query, models.JobStatusPending, jobType).Scan(
		&job.ID, &job.SnapshotID, &job.JobType, &job.Status, &job.Attempts,
		&job.ErrorMessage, &job.StartedAt, &job.CompletedAt, &job.WorkerID,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	job.MarkStarted()
	job.WorkerID = &workerID

	claim := `
		UPDATE jobs SET status = ?, attempts = ?, started_at = ?, worker_id = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(claim, job.Status, job.Attempts, job.StartedAt, job.WorkerID, time.Now(), job.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return job, nil
}

// HasPendingForSnapshot checks whether a pending job of the given type
// already exists for the snapshot, to avoid redundant enqueues.
func (r *JobRepository) HasPendingForSnapshot(snapshotID string, jobType models.JobType) (bool, error) {
	query := `SELECT COUNT(*) FROM jobs WHERE snapshot_id = ? AND job_type = ? AND status = ?`

	var count int
	err := r.db.QueryRow(query, snapshotID, jobType, models.JobStatusPending).Scan(&count)
	return count > 0, err
}

const selectJob = `
	SELECT id, snapshot_id, job_type, status, attempts, error_message,
	       started_at, completed_at, worker_id, created_at, updated_at
	FROM jobs`

func (r *JobRepository) scanOne(row *sql.Row) (*models.Job, error) {
	job := &models.Job{}
	err := row.Scan(
		&job.ID, &job.SnapshotID, &job.JobType, &job.Status, &job.Attempts,
		&job.ErrorMessage, &job.StartedAt, &job.CompletedAt, &job.WorkerID,
		&job.CreatedAt, &job.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return job, nil
}
