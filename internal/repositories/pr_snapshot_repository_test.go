package repositories

import (
	"testing"

	"github.com/clagate/clagate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPRSnapshotIdentityLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewPRSnapshotRepository(db)

	open := models.NewPRSnapshot("octo-org", "widgets", 7, "abc123")
	require.NoError(t, open.SetIdentities([]string{"id-a", "id-b"}))
	require.NoError(t, repo.Create(open))

	archived := models.NewPRSnapshot("octo-org", "widgets", 8, "def456")
	require.NoError(t, archived.SetIdentities([]string{"id-a"}))
	archived.Archived = true
	require.NoError(t, repo.Create(archived))

	t.Run("Finds open snapshots referencing an identity", func(t *testing.T) {
		snapshots, err := repo.GetOpenByIdentityID("id-a")
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, open.ID, snapshots[0].ID)
	})

	t.Run("Unreferenced identity matches nothing", func(t *testing.T) {
		snapshots, err := repo.GetOpenByIdentityID("id-z")
		require.NoError(t, err)
		assert.Empty(t, snapshots)
	})
}

func TestPRSnapshotArchive(t *testing.T) {
	db := newTestDB(t)
	repo := NewPRSnapshotRepository(db)

	snapshot := models.NewPRSnapshot("octo-org", "widgets", 11, "abc123")
	require.NoError(t, repo.Create(snapshot))

	require.NoError(t, repo.Archive(snapshot.ID))

	reloaded, err := repo.GetByID(snapshot.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Archived)
}

func TestDeliveryDeduplication(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeliveryRepository(db)

	first, err := repo.Record(models.NewDelivery("delivery-1", "opened"))
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.Record(models.NewDelivery("delivery-1", "opened"))
	require.NoError(t, err)
	assert.False(t, second)

	exists, err := repo.Exists("delivery-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
