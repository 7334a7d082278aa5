package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
	"github.com/clagate/clagate/internal/services"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	router     *gin.Engine
	agreements *services.AgreementService
	entityRepo *repositories.EntityAgreementRepository
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_schema.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	identityRepo := repositories.NewIdentityRepository(db)
	versionRepo := repositories.NewAgreementVersionRepository(db)
	signatureRepo := repositories.NewSignatureRepository(db)
	entityRepo := repositories.NewEntityAgreementRepository(db)
	snapshotRepo := repositories.NewPRSnapshotRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	jobRepo := repositories.NewJobRepository(db)

	identityService := services.NewIdentityService(identityRepo)
	agreementService := services.NewAgreementService(versionRepo, signatureRepo, false)
	ingestService := services.NewIngestService(deliveryRepo, snapshotRepo, jobRepo, identityService, nil)

	handler := NewAdminHandler(agreementService, identityService, ingestService, entityRepo, snapshotRepo)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/entities", handler.UpsertEntityAgreement)

	return &adminFixture{
		router:     router,
		agreements: agreementService,
		entityRepo: entityRepo,
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUpsertEntityAgreementUsesRequestedVersion(t *testing.T) {
	f := newAdminFixture(t)

	v1, err := f.agreements.PublishVersion(models.AgreementClassEntity, "sha-v1")
	require.NoError(t, err)
	_, err = f.agreements.PublishVersion(models.AgreementClassEntity, "sha-v2")
	require.NoError(t, err)

	// The org signed v1; a later publish must not silently repoint it
	w := postJSON(t, f.router, "/api/entities", gin.H{
		"entity_ref": "acme-corp",
		"version":    v1.Version,
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := f.entityRepo.GetByEntityRef("acme-corp")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, stored.VersionID)
}

func TestUpsertEntityAgreementUnknownVersion(t *testing.T) {
	f := newAdminFixture(t)

	_, err := f.agreements.PublishVersion(models.AgreementClassEntity, "sha-v1")
	require.NoError(t, err)

	w := postJSON(t, f.router, "/api/entities", gin.H{
		"entity_ref": "acme-corp",
		"version":    42,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
