package middleware

import (
	"context"
	"net/http"
	"strings"

	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the bearer token (or auth_token cookie) and puts the
// caller's id and role on both the gin and the request context. With no
// verifier configured every request passes through anonymously.
func AuthMiddleware(verifier *auth.Verifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			c.Next()
			return
		}

		var tokenString string
		if header := c.GetHeader("Authorization"); header != "" {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		} else if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" {
			tokenString = cookie
		}
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required", nil)
			c.Abort()
			return
		}

		id, err := verifier.Verify(tokenString)
		if err != nil {
			log.Debug("token validation failed", zap.Error(err))
			response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
			c.Abort()
			return
		}

		c.Set(string(domain.KeyUserID), id.UserID)
		c.Set(string(domain.KeyUserRole), id.Role)
		ctx := context.WithValue(c.Request.Context(), domain.KeyUserID, id.UserID)
		ctx = context.WithValue(ctx, domain.KeyUserRole, id.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
