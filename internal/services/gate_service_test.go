package services

import (
	"testing"
	"time"

	"github.com/clagate/clagate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotWith(t *testing.T, f *fixture, number int, identityIDs ...string) *models.PRSnapshot {
	t.Helper()
	snapshot := models.NewPRSnapshot("octo-org", "widgets", number, "abc123")
	require.NoError(t, snapshot.SetIdentities(identityIDs))
	require.NoError(t, f.snapshotRepo.Create(snapshot))
	return snapshot
}

func TestEvaluateAllSigned(t *testing.T) {
	f := newFixture(t, false)

	version, err := f.agreements.PublishVersion(models.AgreementClassIndividual, "sha-v2")
	require.NoError(t, err)

	// Identity A signs the individual agreement, PR #7 has sole author A
	a, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)
	_, _, err = f.agreements.RecordSignature(a.ID, version.Version, models.CapacityIndividual, nil)
	require.NoError(t, err)

	snapshot := snapshotWith(t, f, 7, a.ID)

	result, err := f.gate.Evaluate(snapshot, version)
	require.NoError(t, err)
	assert.Equal(t, models.GateStateAllowed, result.State)
	assert.True(t, result.Allowed())
	assert.Empty(t, result.MissingIdentities)
}

func TestEvaluateUnsignedAuthorBlocks(t *testing.T) {
	f := newFixture(t, false)

	version, err := f.agreements.PublishVersion(models.AgreementClassIndividual, "sha-v1")
	require.NoError(t, err)

	a, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)
	b, err := f.identities.Resolve("acct-b", "bob")
	require.NoError(t, err)

	_, _, err = f.agreements.RecordSignature(a.ID, version.Version, models.CapacityIndividual, nil)
	require.NoError(t, err)

	// PR #9 authored by A (signed) and B (unsigned)
	snapshot := snapshotWith(t, f, 9, a.ID, b.ID)

	result, err := f.gate.Evaluate(snapshot, version)
	require.NoError(t, err)
	assert.Equal(t, models.GateStateBlockedMissing, result.State)
	assert.Equal(t, []string{"bob"}, result.MissingIdentities)
}

func TestEvaluateIdempotence(t *testing.T) {
	f := newFixture(t, false)

	version, err := f.agreements.PublishVersion(models.AgreementClassIndividual, "sha-v1")
	require.NoError(t, err)

	a, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)
	b, err := f.identities.Resolve("acct-b", "bob")
	require.NoError(t, err)
	_, _, err = f.agreements.RecordSignature(a.ID, version.Version, models.CapacityIndividual, nil)
	require.NoError(t, err)

	snapshot := snapshotWith(t, f, 9, a.ID, b.ID)

	first, err := f.gate.Evaluate(snapshot, version)
	require.NoError(t, err)
	second, err := f.gate.Evaluate(snapshot, version)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateEntityAgreement(t *testing.T) {
	f := newFixture(t, false)

	version, err := f.agreements.PublishVersion(models.AgreementClassEntity, "sha-v1")
	require.NoError(t, err)

	a, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)

	entityRef := "acme-corp"
	_, _, err = f.agreements.RecordSignature(a.ID, version.Version, models.CapacityEntity, &entityRef)
	require.NoError(t, err)

	snapshot := snapshotWith(t, f, 12, a.ID)

	t.Run("Unverified affiliation blocks as stale", func(t *testing.T) {
		result, err := f.gate.Evaluate(snapshot, version)
		require.NoError(t, err)
		assert.Equal(t, models.GateStateBlockedStale, result.State)
		assert.Equal(t, []string{"alice"}, result.StaleIdentities)
	})

	t.Run("Valid entity agreement allows", func(t *testing.T) {
		require.NoError(t, f.entityRepo.Upsert(models.NewEntityAgreement(entityRef, version.ID, nil)))

		result, err := f.gate.Evaluate(snapshot, version)
		require.NoError(t, err)
		assert.Equal(t, models.GateStateAllowed, result.State)
	})

	t.Run("Expired entity agreement blocks as stale", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour)
		require.NoError(t, f.entityRepo.Upsert(models.NewEntityAgreement(entityRef, version.ID, &expired)))

		result, err := f.gate.Evaluate(snapshot, version)
		require.NoError(t, err)
		assert.Equal(t, models.GateStateBlockedStale, result.State)
	})
}

func TestPublishingNewVersionRegates(t *testing.T) {
	f := newFixture(t, false)

	v1, err := f.agreements.PublishVersion(models.AgreementClassIndividual, "sha-v1")
	require.NoError(t, err)

	a, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)
	_, _, err = f.agreements.RecordSignature(a.ID, v1.Version, models.CapacityIndividual, nil)
	require.NoError(t, err)

	snapshot := snapshotWith(t, f, 7, a.ID)

	result, err := f.gate.Evaluate(snapshot, v1)
	require.NoError(t, err)
	require.Equal(t, models.GateStateAllowed, result.State)

	// A new version flips the unmigrated signer to blocked on next evaluation
	v2, err := f.agreements.PublishVersion(models.AgreementClassIndividual, "sha-v2")
	require.NoError(t, err)

	result, err = f.gate.Evaluate(snapshot, v2)
	require.NoError(t, err)
	assert.Equal(t, models.GateStateBlockedMissing, result.State)
	assert.Equal(t, []string{"alice"}, result.MissingIdentities)
}

func TestEvaluateFollowsMergedIdentity(t *testing.T) {
	f := newFixture(t, false)

	version, err := f.agreements.PublishVersion(models.AgreementClassIndividual, "sha-v1")
	require.NoError(t, err)

	// The contributor pushed under two accounts; only the canonical one signed
	old, err := f.identities.Resolve("acct-old", "alice-old")
	require.NoError(t, err)
	canonical, err := f.identities.Resolve("acct-a", "alice")
	require.NoError(t, err)
	_, _, err = f.agreements.RecordSignature(canonical.ID, version.Version, models.CapacityIndividual, nil)
	require.NoError(t, err)

	// PR #4 was recorded before the operator merged the accounts
	snapshot := snapshotWith(t, f, 4, old.ID)

	result, err := f.gate.Evaluate(snapshot, version)
	require.NoError(t, err)
	require.Equal(t, models.GateStateBlockedMissing, result.State)

	require.NoError(t, f.identities.Merge(old.ID, canonical.ID))

	t.Run("Snapshot under the old identity now passes", func(t *testing.T) {
		result, err := f.gate.Evaluate(snapshot, version)
		require.NoError(t, err)
		assert.Equal(t, models.GateStateAllowed, result.State)
		assert.Empty(t, result.MissingIdentities)
	})

	t.Run("Unrelated unresolved keys still block", func(t *testing.T) {
		other := snapshotWith(t, f, 5, old.ID, "raw-unknown-account")
		result, err := f.gate.Evaluate(other, version)
		require.NoError(t, err)
		assert.Equal(t, models.GateStateBlockedMissing, result.State)
		assert.Equal(t, []string{"raw-unknown-account"}, result.MissingIdentities)
	})
}
