package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// maxTagsPerRequest caps the person ids accepted by one tag call.
const maxTagsPerRequest = 500

// tagRequest is the body of PUT /{entity}/:id/tags.
type tagRequest struct {
	PersonIDs []string `json:"person_ids"`
}

// TagHandler serves one person join relation (post tags or media tags).
type TagHandler struct {
	repo     TagRepository
	log      *logrus.Logger
	relation string
}

// NewTagHandler creates a TagHandler. relation names the join table in logs.
func NewTagHandler(repo TagRepository, relation string, log *logrus.Logger) *TagHandler {
	return &TagHandler{repo: repo, log: log, relation: relation}
}

// List handles GET /api/v1/{entity}/:id/tags.
func (h *TagHandler) List(c *gin.Context) {
	entityID := c.Param("id")
	if err := validatePathID(entityID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	ids, err := h.repo.TaggedPersons(c.Request.Context(), ownerID, entityID)
	if err != nil {
		respondStoreError(c, h.log, err, "listing "+h.relation)

		return
	}
	if ids == nil {
		ids = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"person_ids": ids})
}

// Tag handles PUT /api/v1/{entity}/:id/tags. Existing tags are kept.
func (h *TagHandler) Tag(c *gin.Context) {
	entityID := c.Param("id")
	if err := validatePathID(entityID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	ids := models.NormalizeIDs(req.PersonIDs)
	if len(ids) == 0 {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "person_ids must not be empty")

		return
	}
	if len(ids) > maxTagsPerRequest {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "too many person_ids in one request")

		return
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	if err := h.repo.Tag(c.Request.Context(), ownerID, entityID, ids); err != nil {
		respondStoreError(c, h.log, err, "tagging "+h.relation)

		return
	}

	h.log.WithFields(logrus.Fields{"action": h.relation + ".tag", "owner_id": ownerID, "entity_id": entityID, "count": len(ids)}).Info("audit")

	c.Status(http.StatusNoContent)
}

// Untag handles DELETE /api/v1/{entity}/:id/tags/:person.
func (h *TagHandler) Untag(c *gin.Context) {
	entityID := c.Param("id")
	personID := c.Param("person")
	for _, id := range []string{entityID, personID} {
		if err := validatePathID(id); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	if err := h.repo.Untag(c.Request.Context(), ownerID, entityID, personID); err != nil {
		respondStoreError(c, h.log, err, "untagging "+h.relation)

		return
	}

	h.log.WithFields(logrus.Fields{"action": h.relation + ".untag", "owner_id": ownerID, "entity_id": entityID, "person_id": personID}).Info("audit")

	c.Status(http.StatusNoContent)
}
