package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/httputil"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/metrics"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeValidationError = "validation_error"
	ErrCodeParseError      = "parse_error"
	ErrCodeStoreError      = "store_error"
)

// validationErrors are returned by model validation and map to 400.
var validationErrors = []error{
	models.ErrMissingID,
	models.ErrMissingName,
	models.ErrMissingBody,
	models.ErrInvalidGender,
	models.ErrSelfRelation,
	models.ErrHomeNotMember,
	models.ErrMalformedRow,
}

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondStoreError maps a store error onto a response. Unrecognized errors
// are logged and reported as 500.
func respondStoreError(c *gin.Context, log *logrus.Logger, err error, action string) {
	switch {
	case errors.Is(err, models.ErrPersonNotFound),
		errors.Is(err, models.ErrTreeNotFound),
		errors.Is(err, models.ErrPostNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case isValidationError(err):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	default:
		log.WithError(err).Error(action)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
