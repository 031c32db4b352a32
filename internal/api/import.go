package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/gedcom"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
)

// maxImportGenerations caps the max_generations query parameter.
const maxImportGenerations = 50

// ImportHandler serves server-side GEDCOM imports.
type ImportHandler struct {
	svc ImportService
	log *logrus.Logger
}

// NewImportHandler creates an ImportHandler with the given service and logger.
func NewImportHandler(svc ImportService, log *logrus.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, log: log}
}

// GEDCOM handles POST /api/v1/import/gedcom. The body is the raw file.
// Query parameters: max_generations (absent selects the server default, 0
// imports the start person and spouses), tree_name, anchor.
func (h *ImportHandler) GEDCOM(c *gin.Context) {
	maxGenerations := service.DefaultGenerations
	if raw, ok := c.GetQuery("max_generations"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > maxImportGenerations {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "max_generations must be between 0 and 50")

			return
		}
		maxGenerations = v
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "reading request body")

		return
	}

	var opts []gedcom.Option
	if name := c.Query("tree_name"); name != "" {
		opts = append(opts, gedcom.WithTreeName(name))
	}
	if anchor := c.Query("anchor"); anchor != "" {
		opts = append(opts, gedcom.WithAnchor(anchor))
	}

	ownerID := getOwnerID(c)
	if ownerID == "" {
		return
	}

	out, err := h.svc.Import(c.Request.Context(), ownerID, string(body), maxGenerations, opts...)
	if err != nil {
		var pe *gedcom.ParseError
		if errors.As(err, &pe) {
			respondError(c, http.StatusBadRequest, ErrCodeParseError, pe.Error())

			return
		}
		if errors.Is(err, service.ErrTreeNotStored) {
			h.log.WithError(err).WithField("owner_id", ownerID).Warn("import tree rejected by store")
			respondError(c, http.StatusBadGateway, ErrCodeStoreError, err.Error())

			return
		}

		respondStoreError(c, h.log, err, "importing gedcom")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "import.gedcom",
		"owner_id": ownerID,
		"tree_id":  out.Tree.ID,
		"people":   len(out.People),
		"failures": len(out.Failures),
	}).Info("audit")

	c.JSON(http.StatusCreated, out)
}
