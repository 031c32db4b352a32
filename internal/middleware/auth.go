// Package middleware provides the gin middleware of the family graph API:
// bearer authentication, request ids, body limits and request metrics.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OwnerIDKey is the gin context key holding the authenticated owner.
const OwnerIDKey = "owner_id"

// authTimingFloor is the minimum response time for failed authentication so
// valid and invalid keys cannot be told apart by latency.
const authTimingFloor = 50 * time.Millisecond

// OwnerLookup resolves an API key to its owner.
type OwnerLookup interface {
	GetOwnerByAPIKey(ctx context.Context, apiKey string) (string, error)
}

// truncateKey returns at most the first 4 characters of key followed by "...".
func truncateKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return key
}

// AuthMiddleware returns Gin middleware that authenticates requests via Bearer token
// and stores the owner under OwnerIDKey.
func AuthMiddleware(lookup OwnerLookup, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() != http.StatusUnauthorized {
				return
			}
			if elapsed := time.Since(start); elapsed < authTimingFloor {
				time.Sleep(authTimingFloor - elapsed)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		ownerID, err := lookup.GetOwnerByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			log.WithFields(logrus.Fields{
				"client_ip":  c.ClientIP(),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"request_id": c.GetString(RequestIDKey),
				"key_prefix": truncateKey(apiKey),
			}).Warn("authentication failed: invalid api key")

			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid api key")
			return
		}

		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}

// ExtractBearerToken extracts the API key from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
