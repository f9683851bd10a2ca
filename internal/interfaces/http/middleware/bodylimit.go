package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeRequestTooLarge is returned when a body exceeds the configured limit
const CodeRequestTooLarge = "REQUEST_TOO_LARGE"

// BodyLimit rejects requests whose declared length exceeds maxBytes and caps
// streamed bodies at the same size. Multipart image uploads pass through
// here too, so maxBytes must leave room for the largest accepted image.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, CodeRequestTooLarge,
				"Request body exceeds maximum allowed size")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
