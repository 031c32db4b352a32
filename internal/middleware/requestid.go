package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
)

// RequestID assigns the ID that appears in request logs, error bodies and
// recorded sync failures. The client SDK sends a UUID per call; that ID is
// kept so a failed push can be matched to its server log line. Any other
// header value is replaced and logged as client_request_id.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(RequestIDHeader)

		id := clientID
		if _, err := uuid.Parse(clientID); err != nil {
			id = uuid.NewString()
			if clientID != "" {
				log.WithFields(logrus.Fields{
					"request_id":        id,
					"client_request_id": clientID,
				}).Debug("non-uuid request id replaced")
				c.Set("client_request_id", clientID)
			}
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
