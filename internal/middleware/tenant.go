package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/checknet/backend/internal/database"
)

const (
	tenantHeader = "X-Tenant-ID"
	userHeader   = "X-User-ID"

	scopeKey  = "tenant_scope"
	userIDKey = "user_id"
)

// TenantContext reads the tenant and user identity set by the API gateway
// and binds a tenant-scoped database handle into the request context. Every
// downstream handler works through that scope; requests without a valid
// tenant never reach a handler.
func TenantContext(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(c.GetHeader(tenantHeader))
		if err != nil || tenantID == uuid.Nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid tenant identity"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(c.GetHeader(userHeader))
		if err != nil || userID == uuid.Nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user identity"})
			c.Abort()
			return
		}

		c.Set(scopeKey, database.NewTenantScope(db, tenantID))
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// ScopeFrom returns the tenant scope bound by TenantContext
func ScopeFrom(c *gin.Context) database.TenantScope {
	return c.MustGet(scopeKey).(database.TenantScope)
}

// UserIDFrom returns the authenticated user ID bound by TenantContext
func UserIDFrom(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDKey).(uuid.UUID)
}
