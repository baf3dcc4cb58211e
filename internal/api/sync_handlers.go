package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maildesk-io/maildesk/internal/ingest"
	"github.com/maildesk-io/maildesk/internal/middleware"
)

// SyncHandler exposes the two sync triggers: the scheduler's batch run and
// the per-user on-demand run.
type SyncHandler struct {
	service *ingest.Service
	logger  *log.Logger
}

func NewSyncHandler(service *ingest.Service) *SyncHandler {
	return &SyncHandler{
		service: service,
		logger:  log.New(log.Writer(), "[API] ", log.LstdFlags),
	}
}

// RunAll handles POST /api/v1/sync/run, the scheduler-triggered batch sync
// across all active accounts.
func (h *SyncHandler) RunAll(c *gin.Context) {
	stats, err := h.service.SyncAll(c.Request.Context())
	if err != nil {
		h.logger.Printf("Batch sync failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Sync failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"accounts": stats.Accounts,
		"created":  stats.Created,
		"synced":   stats.Synced,
		"failed":   stats.Failed,
	})
}

// RunForUser handles POST /api/v1/sync/now, the authenticated user's
// on-demand sync of their own connected mailbox.
func (h *SyncHandler) RunForUser(c *gin.Context) {
	tenantID := c.GetString(middleware.ContextTenantID)
	userID := c.GetString(middleware.ContextUserID)

	stats, err := h.service.SyncForUser(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.logger.Printf("On-demand sync failed for user %s (tenant %s): %v", userID, tenantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Sync failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"created": stats.Created,
		"synced":  stats.Synced,
	})
}
