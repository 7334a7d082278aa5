package handlers

import (
	"net/http"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/services"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	ingestService *services.IngestService
}

func NewWebhookHandler(ingestService *services.IngestService) *WebhookHandler {
	return &WebhookHandler{
		ingestService: ingestService,
	}
}

// HandlePullRequest receives pull-request lifecycle events from the hosting
// platform. The X-GitHub-Delivery header is the idempotency key.
func (h *WebhookHandler) HandlePullRequest(c *gin.Context) {
	deliveryID := c.GetHeader("X-GitHub-Delivery")
	if deliveryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing delivery identifier"})
		return
	}

	var event models.PullRequestEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.ingestService.Ingest(deliveryID, &event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest event"})
		return
	}

	switch outcome {
	case services.IngestApplied:
		c.JSON(http.StatusAccepted, gin.H{"outcome": outcome})
	default:
		c.JSON(http.StatusOK, gin.H{"outcome": outcome})
	}
}
