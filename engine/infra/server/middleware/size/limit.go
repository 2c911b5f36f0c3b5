// Package size caps request bodies.
package size

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter makes reads past limit fail, which handlers see as a
// binding error.
func BodySizeLimiter(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
