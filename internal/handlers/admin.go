package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
	"github.com/clagate/clagate/internal/services"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the operator surface: publishing agreement versions,
// registering entity agreements, merging identities, and inspecting gate state.
type AdminHandler struct {
	agreementService *services.AgreementService
	identityService  *services.IdentityService
	ingestService    *services.IngestService
	entityRepo       *repositories.EntityAgreementRepository
	snapshotRepo     *repositories.PRSnapshotRepository
}

func NewAdminHandler(
	agreementService *services.AgreementService,
	identityService *services.IdentityService,
	ingestService *services.IngestService,
	entityRepo *repositories.EntityAgreementRepository,
	snapshotRepo *repositories.PRSnapshotRepository,
) *AdminHandler {
	return &AdminHandler{
		agreementService: agreementService,
		identityService:  identityService,
		ingestService:    ingestService,
		entityRepo:       entityRepo,
		snapshotRepo:     snapshotRepo,
	}
}

type publishVersionRequest struct {
	Class   string `json:"class" binding:"required,oneof=individual entity"`
	TextSHA string `json:"text_sha" binding:"required"`
}

// PublishVersion appends a new agreement version and advances the current
// pointer. Open PRs re-gate against it on their next evaluation.
func (h *AdminHandler) PublishVersion(c *gin.Context) {
	var req publishVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.agreementService.PublishVersion(models.AgreementClass(req.Class), req.TextSHA)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish version"})
		return
	}

	c.JSON(http.StatusCreated, version)
}

type entityAgreementRequest struct {
	EntityRef string     `json:"entity_ref" binding:"required"`
	Version   int        `json:"version" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
	Revoked   bool       `json:"revoked"`
}

// UpsertEntityAgreement registers or refreshes a corporate agreement
func (h *AdminHandler) UpsertEntityAgreement(c *gin.Context) {
	var req entityAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The agreement must reference a published version
	version, err := h.agreementService.VersionByNumber(req.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown agreement version"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load agreement version"})
		return
	}

	agreement := models.NewEntityAgreement(req.EntityRef, version.ID, req.ExpiresAt)
	agreement.Revoked = req.Revoked

	if err := h.entityRepo.Upsert(agreement); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store entity agreement"})
		return
	}

	c.JSON(http.StatusOK, agreement)
}

type mergeIdentitiesRequest struct {
	FromID string `json:"from_id" binding:"required"`
	ToID   string `json:"to_id" binding:"required"`
}

// MergeIdentities marks one identity superseded by another (operator action)
func (h *AdminHandler) MergeIdentities(c *gin.Context) {
	var req mergeIdentitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.identityService.Merge(req.FromID, req.ToID); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	// The surviving identity's signatures may now cover the merged one's PRs
	if err := h.ingestService.ReevaluateIdentity(c.Request.Context(), req.FromID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "merge recorded but re-evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"merged": req.FromID, "into": req.ToID})
}

// GetPRStatus returns the tracked snapshot and cached gate result for one PR
func (h *AdminHandler) GetPRStatus(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pull request number"})
		return
	}

	snapshot, err := h.snapshotRepo.GetByRepoPR(c.Param("owner"), c.Param("repo"), number)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "pull request not tracked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot":    snapshot,
		"gate_result": snapshot.CachedGateResult(),
	})
}
