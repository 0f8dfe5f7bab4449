package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecureHeaders sets the response headers appropriate for a JSON API that
// serves fraud intelligence: never cached, never framed, never sniffed.
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
