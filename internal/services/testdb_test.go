package services

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/clagate/clagate/internal/repositories"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory SQLite database with the service schema.
// MaxOpenConns is pinned to 1 so every query sees the same memory database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_schema.sql"))
	require.NoError(t, err)

	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

// fixture bundles the full service graph over one test database
type fixture struct {
	identityRepo  *repositories.IdentityRepository
	versionRepo   *repositories.AgreementVersionRepository
	signatureRepo *repositories.SignatureRepository
	entityRepo    *repositories.EntityAgreementRepository
	snapshotRepo  *repositories.PRSnapshotRepository
	deliveryRepo  *repositories.DeliveryRepository
	jobRepo       *repositories.JobRepository

	identities *IdentityService
	agreements *AgreementService
	gate       *GateService
	ingest     *IngestService
}

func newFixture(t *testing.T, grandfather bool, exemptAccounts ...string) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{
		identityRepo:  repositories.NewIdentityRepository(db),
		versionRepo:   repositories.NewAgreementVersionRepository(db),
		signatureRepo: repositories.NewSignatureRepository(db),
		entityRepo:    repositories.NewEntityAgreementRepository(db),
		snapshotRepo:  repositories.NewPRSnapshotRepository(db),
		deliveryRepo:  repositories.NewDeliveryRepository(db),
		jobRepo:       repositories.NewJobRepository(db),
	}

	f.identities = NewIdentityService(f.identityRepo)
	f.agreements = NewAgreementService(f.versionRepo, f.signatureRepo, grandfather)
	f.gate = NewGateService(f.agreements, f.identities, f.entityRepo)
	f.ingest = NewIngestService(f.deliveryRepo, f.snapshotRepo, f.jobRepo, f.identities, exemptAccounts)

	return f
}
