package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// maxBulkItems caps a single bulk upsert request.
const maxBulkItems = 1000

// resource describes one REST collection.
type resource[T any] struct {
	singular   string
	plural     string
	id         func(*T) *string
	validate   func(*T) error
	checkPatch func(map[string]any) error
}

// CollectionHandler serves list, create, bulk upsert, patch and delete for
// one collection.
type CollectionHandler[T any] struct {
	repo domain.Collection[T]
	log  *logrus.Logger
	res  resource[T]
}

// NewPersonHandler creates a CollectionHandler for people.
func NewPersonHandler(repo domain.Collection[models.Person], log *logrus.Logger) *CollectionHandler[models.Person] {
	return &CollectionHandler[models.Person]{repo: repo, log: log, res: resource[models.Person]{
		singular: "person",
		plural:   "people",
		id:       func(p *models.Person) *string { return &p.ID },
		validate: func(p *models.Person) error { return p.Validate() },
		checkPatch: func(f map[string]any) error {
			_, err := models.DecodePatch[models.PersonPatch](f)
			return err
		},
	}}
}

// NewTreeHandler creates a CollectionHandler for trees.
func NewTreeHandler(repo domain.Collection[models.Tree], log *logrus.Logger) *CollectionHandler[models.Tree] {
	return &CollectionHandler[models.Tree]{repo: repo, log: log, res: resource[models.Tree]{
		singular: "tree",
		plural:   "trees",
		id:       func(t *models.Tree) *string { return &t.ID },
		validate: func(t *models.Tree) error { return t.Validate() },
		checkPatch: func(f map[string]any) error {
			_, err := models.DecodePatch[models.TreePatch](f)
			return err
		},
	}}
}

// NewPostHandler creates a CollectionHandler for posts.
func NewPostHandler(repo domain.Collection[models.Post], log *logrus.Logger) *CollectionHandler[models.Post] {
	return &CollectionHandler[models.Post]{repo: repo, log: log, res: resource[models.Post]{
		singular: "post",
		plural:   "posts",
		id:       func(p *models.Post) *string { return &p.ID },
		validate: func(p *models.Post) error { return p.Validate() },
		checkPatch: func(f map[string]any) error {
			_, err := models.DecodePatch[models.PostPatch](f)
			return err
		},
	}}
}

// List handles GET /api/v1/{plural}.
func (h *CollectionHandler[T]) List(c *gin.Context) {
	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	items, err := h.repo.List(c.Request.Context(), ownerID)
	if err != nil {
		respondStoreError(c, h.log, err, "listing "+h.res.plural)

		return
	}
	if items == nil {
		items = []T{}
	}

	h.log.WithFields(logrus.Fields{"action": h.res.singular + ".list", "owner_id": ownerID, "count": len(items)}).Info("audit")

	c.JSON(http.StatusOK, gin.H{h.res.plural: items})
}

// Create handles POST /api/v1/{plural}. An empty id is generated.
func (h *CollectionHandler[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if id := h.res.id(&item); *id == "" {
		*id = uuid.NewString()
	}

	if err := h.res.validate(&item); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	created, err := h.repo.Create(c.Request.Context(), ownerID, item)
	if err != nil {
		respondStoreError(c, h.log, err, "creating "+h.res.singular)

		return
	}

	h.log.WithFields(logrus.Fields{"action": h.res.singular + ".create", "owner_id": ownerID, "id": *h.res.id(created)}).Info("audit")

	c.JSON(http.StatusCreated, created)
}

// BulkUpsert handles POST /api/v1/bulk/{plural}. The body and the response
// both carry the items under the plural key.
func (h *CollectionHandler[T]) BulkUpsert(c *gin.Context) {
	var req map[string][]T
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	items := req[h.res.plural]
	if len(items) > maxBulkItems {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "too many items in one request")

		return
	}

	for i := range items {
		if err := h.res.validate(&items[i]); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

			return
		}
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	out, err := h.repo.BulkUpsert(c.Request.Context(), ownerID, items)
	if err != nil {
		respondStoreError(c, h.log, err, "bulk upserting "+h.res.plural)

		return
	}
	if out == nil {
		out = []T{}
	}

	h.log.WithFields(logrus.Fields{"action": h.res.singular + ".bulk_upsert", "owner_id": ownerID, "count": len(out)}).Info("audit")

	c.JSON(http.StatusOK, gin.H{h.res.plural: out})
}

// Update handles PATCH /api/v1/{plural}/:id with a map of changed fields.
func (h *CollectionHandler[T]) Update(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if len(fields) == 0 {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "no fields to update")

		return
	}

	if err := h.res.checkPatch(fields); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	if err := h.repo.Update(c.Request.Context(), ownerID, id, fields); err != nil {
		respondStoreError(c, h.log, err, "updating "+h.res.singular)

		return
	}

	h.log.WithFields(logrus.Fields{"action": h.res.singular + ".update", "owner_id": ownerID, "id": id, "fields": len(fields)}).Info("audit")

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/{plural}/:id.
func (h *CollectionHandler[T]) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), ownerID, id); err != nil {
		respondStoreError(c, h.log, err, "deleting "+h.res.singular)

		return
	}

	h.log.WithFields(logrus.Fields{"action": h.res.singular + ".delete", "owner_id": ownerID, "id": id}).Info("audit")

	c.Status(http.StatusNoContent)
}
