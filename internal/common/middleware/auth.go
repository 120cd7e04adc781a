package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"streamraffle-backend/internal/common/errors"
)

const adminIDKey = "admin_id"

// AdminAuth resolves the operator identity for the management API. The
// service sits behind the dashboard gateway, which authenticates the
// operator and forwards the numeric id in X-Admin-ID.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Admin-ID")
		if raw == "" {
			c.Error(errors.New(errors.ErrCodeForbidden, "missing admin identity"))
			c.Abort()
			return
		}
		adminID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || adminID <= 0 {
			c.Error(errors.New(errors.ErrCodeForbidden, "invalid admin identity"))
			c.Abort()
			return
		}
		c.Set(adminIDKey, adminID)
		c.Next()
	}
}

// AdminID reads the operator id set by AdminAuth.
func AdminID(c *gin.Context) int64 {
	return c.GetInt64(adminIDKey)
}
