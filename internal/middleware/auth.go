package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/greenfield-academy/admin-api/internal/service"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the authenticated session.
const ContextSessionKey = "currentSession"

// Header names carrying the admin token pair.
const (
	HeaderAdminToken  = "x-admin-token"
	HeaderDeviceToken = "x-device-token"
)

// AdminAuth protects routes by requiring a valid admin token together with a
// device token that names a live server-side session.
func AdminAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminToken := c.GetHeader(HeaderAdminToken)
		deviceToken := c.GetHeader(HeaderDeviceToken)
		if adminToken == "" || deviceToken == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing admin or device token"))
			c.Abort()
			return
		}

		session, err := authService.Authenticate(c.Request.Context(), adminToken, deviceToken)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}
