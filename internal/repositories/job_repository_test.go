package repositories

import (
	"testing"

	"github.com/clagate/clagate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSnapshot(t *testing.T, repo *PRSnapshotRepository, number int) *models.PRSnapshot {
	t.Helper()
	snapshot := models.NewPRSnapshot("octo-org", "widgets", number, "abc123")
	require.NoError(t, repo.Create(snapshot))
	return snapshot
}

func TestJobClaiming(t *testing.T) {
	db := newTestDB(t)
	snapshotRepo := NewPRSnapshotRepository(db)
	repo := NewJobRepository(db)

	snapshot := createSnapshot(t, snapshotRepo, 7)

	first := models.NewJob(snapshot.ID, models.JobTypeEvaluate)
	second := models.NewJob(snapshot.ID, models.JobTypeEvaluate)
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))

	t.Run("Claim is FIFO and marks in-progress", func(t *testing.T) {
		job, err := repo.GetNextPendingJob(models.JobTypeEvaluate, "eval-1")
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, first.ID, job.ID)
		assert.Equal(t, models.JobStatusInProgress, job.Status)
		require.NotNil(t, job.WorkerID)
		assert.Equal(t, "eval-1", *job.WorkerID)
	})

	t.Run("A claimed job is not handed out twice", func(t *testing.T) {
		job, err := repo.GetNextPendingJob(models.JobTypeEvaluate, "eval-2")
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, second.ID, job.ID)

		none, err := repo.GetNextPendingJob(models.JobTypeEvaluate, "eval-3")
		require.NoError(t, err)
		assert.Nil(t, none)
	})
}

func TestHasPendingForSnapshot(t *testing.T) {
	db := newTestDB(t)
	snapshotRepo := NewPRSnapshotRepository(db)
	repo := NewJobRepository(db)

	snapshot := createSnapshot(t, snapshotRepo, 9)

	pending, err := repo.HasPendingForSnapshot(snapshot.ID, models.JobTypeEvaluate)
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, repo.Create(models.NewJob(snapshot.ID, models.JobTypeEvaluate)))

	pending, err = repo.HasPendingForSnapshot(snapshot.ID, models.JobTypeEvaluate)
	require.NoError(t, err)
	assert.True(t, pending)
}
