package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIsTotal(t *testing.T) {
	f := newFixture(t, false)

	// Unknown accounts mint a fresh identity rather than failing
	identity, err := f.identities.Resolve("acct-1", "octocat")
	require.NoError(t, err)
	assert.NotEmpty(t, identity.ID)

	// Resolution is deterministic
	again, err := f.identities.Resolve("acct-1", "octocat")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, again.ID)
}

func TestResolveFollowsMerges(t *testing.T) {
	f := newFixture(t, false)

	old, err := f.identities.Resolve("acct-old", "octocat-work")
	require.NoError(t, err)
	canonical, err := f.identities.Resolve("acct-new", "octocat")
	require.NoError(t, err)

	require.NoError(t, f.identities.Merge(old.ID, canonical.ID))

	resolved, err := f.identities.Resolve("acct-old", "octocat-work")
	require.NoError(t, err)
	assert.Equal(t, canonical.ID, resolved.ID)
}

func TestMergeValidation(t *testing.T) {
	f := newFixture(t, false)

	a, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)
	b, err := f.identities.Resolve("acct-b", "bob")
	require.NoError(t, err)

	t.Run("Self merge is rejected", func(t *testing.T) {
		assert.Error(t, f.identities.Merge(a.ID, a.ID))
	})

	t.Run("Merging into a superseded identity is rejected", func(t *testing.T) {
		require.NoError(t, f.identities.Merge(a.ID, b.ID))
		c, err := f.identities.Resolve("acct-c", "carol")
		require.NoError(t, err)
		assert.Error(t, f.identities.Merge(c.ID, a.ID))
	})
}

func TestClaimEntityIsAdvisory(t *testing.T) {
	f := newFixture(t, false)

	identity, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)
	require.NoError(t, f.identities.ClaimEntity(identity.ID, "acme-corp"))

	reloaded, err := f.identities.GetByID(identity.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.EntityClaim)
	assert.Equal(t, "acme-corp", *reloaded.EntityClaim)
}
