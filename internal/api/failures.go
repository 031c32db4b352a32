package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// FailureHandler serves the sync failure log.
type FailureHandler struct {
	repo FailureRepository
	log  *logrus.Logger
}

// NewFailureHandler creates a FailureHandler with the given repository and logger.
func NewFailureHandler(repo FailureRepository, log *logrus.Logger) *FailureHandler {
	return &FailureHandler{repo: repo, log: log}
}

// List handles GET /api/v1/sync-failures.
func (h *FailureHandler) List(c *gin.Context) {
	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	q := models.SyncFailureQuery{
		Kind:   c.Query("kind"),
		Limit:  parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset: parseOffset(c.DefaultQuery("offset", "0")),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "since must be RFC 3339")

			return
		}
		q.Since = &t
	}

	failures, hasMore, err := h.repo.ListFailures(c.Request.Context(), ownerID, q)
	if err != nil {
		respondStoreError(c, h.log, err, "listing sync failures")

		return
	}
	if failures == nil {
		failures = []models.SyncFailure{}
	}

	c.JSON(http.StatusOK, gin.H{"failures": failures, "has_more": hasMore})
}

// Record handles POST /api/v1/sync-failures. Clients report failures their
// own caches could not push.
func (h *FailureHandler) Record(c *gin.Context) {
	var f models.SyncFailure
	if err := c.ShouldBindJSON(&f); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if f.Kind == "" || f.Message == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "kind and message are required")

		return
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	if f.OccurredAt.IsZero() {
		f.OccurredAt = time.Now().UTC()
	}

	if err := h.repo.RecordFailure(c.Request.Context(), ownerID, f); err != nil {
		respondStoreError(c, h.log, err, "recording sync failure")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "sync_failure.record", "owner_id": ownerID, "kind": f.Kind, "op": f.Op}).Info("audit")

	c.Status(http.StatusNoContent)
}
