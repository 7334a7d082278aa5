package repositories

import (
	"testing"

	"github.com/clagate/clagate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgreementVersionPublish(t *testing.T) {
	db := newTestDB(t)
	repo := NewAgreementVersionRepository(db)

	v1, err := repo.Publish(models.AgreementClassIndividual, "sha-v1")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)
	assert.True(t, v1.IsCurrent)

	v2, err := repo.Publish(models.AgreementClassIndividual, "sha-v2")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	t.Run("Current pointer advances monotonically", func(t *testing.T) {
		current, err := repo.GetCurrent()
		require.NoError(t, err)
		assert.Equal(t, v2.ID, current.ID)
	})

	t.Run("Prior version remains readable but not current", func(t *testing.T) {
		prior, err := repo.GetByVersion(1)
		require.NoError(t, err)
		assert.False(t, prior.IsCurrent)
		assert.Equal(t, "sha-v1", prior.TextSHA)
	})
}
