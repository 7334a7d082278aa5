package handlers

import (
	"net/http"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/services"
	"github.com/clagate/clagate/pkg/logger"
	"github.com/gin-gonic/gin"
)

type SignatureHandler struct {
	identityService  *services.IdentityService
	agreementService *services.AgreementService
	ingestService    *services.IngestService
}

func NewSignatureHandler(
	identityService *services.IdentityService,
	agreementService *services.AgreementService,
	ingestService *services.IngestService,
) *SignatureHandler {
	return &SignatureHandler{
		identityService:  identityService,
		agreementService: agreementService,
		ingestService:    ingestService,
	}
}

type signatureRequest struct {
	AccountID string  `json:"account_id" binding:"required"`
	Username  string  `json:"username"`
	Version   int     `json:"version" binding:"required"`
	Capacity  string  `json:"capacity" binding:"required,oneof=individual entity"`
	EntityRef *string `json:"entity_ref"`
}

// Submit records a completed signing-flow callback and fans out gate
// re-evaluation to every open pull request referencing the signer.
func (h *SignatureHandler) Submit(c *gin.Context) {
	var req signatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.identityService.Resolve(req.AccountID, req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve identity"})
		return
	}

	capacity := models.SignatureCapacity(req.Capacity)
	signature, created, err := h.agreementService.RecordSignature(identity.ID, req.Version, capacity, req.EntityRef)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if capacity == models.CapacityEntity && req.EntityRef != nil {
		if err := h.identityService.ClaimEntity(identity.ID, *req.EntityRef); err != nil {
			logger.WithError(err).Warn("Failed to record entity claim")
		}
	}

	if err := h.ingestService.ReevaluateIdentity(c.Request.Context(), identity.ID); err != nil {
		logger.WithError(err).WithField("identity_id", identity.ID).Error("Failed to fan out re-evaluation")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	c.JSON(status, gin.H{
		"signature_id":        signature.ID,
		"identity_id":         identity.ID,
		"created":             created,
		"version_not_current": signature.VersionNotCurrent,
	})
}
