package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at defaultMax bytes, or at the per-route
// limit keyed by gin's full path (e.g. "/api/v1/import/gedcom"). A declared
// Content-Length over the limit is rejected with 413 before the handler runs;
// undeclared bodies are cut off while reading.
func BodyLimit(defaultMax int64, perRoute map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultMax
		if n, ok := perRoute[c.FullPath()]; ok {
			limit = n
		}

		if c.Request.ContentLength > limit {
			respondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")

			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}
