package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"tokenvault/internal/domain"
	"tokenvault/internal/pkg/jwt"
	"tokenvault/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserDirectory resolves an authenticated principal to a directory row.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// JWTAuth validates the access token on every request: signature, claims
// and kind, entirely stateless. Revoking a session does not invalidate
// already-issued access tokens; only refresh is denied going forward.
func JWTAuth(codec *jwt.Service, users UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			// Cookie transport fallback.
			if v, err := c.Cookie("accessToken"); err == nil && v != "" {
				header = "Bearer " + v
			}
		}
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authentication required")
			c.Abort()
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Expected Bearer token")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := codec.Verify(tokenStr, jwt.KindAccess)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		principalID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), principalID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNKNOWN_PRINCIPAL", "Account no longer exists")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("role", user.Role)
		c.Next()
	}
}
