package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/pkg/auth"
	"github.com/medicare-hq/medicare-api/pkg/authz"
	"github.com/medicare-hq/medicare-api/pkg/httputil"
)

// Context keys set by Authenticate.
const (
	ContextAccountID = "account_id"
	ContextEmail     = "email"
	ContextRole      = "role"
)

type AuthMiddleware struct {
	jwtSvc auth.JWTService
}

func NewAuthMiddleware(jwtSvc auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

// Authenticate verifies the bearer token and sets the caller's identity in
// context. A missing or malformed header is unauthorized; a token that fails
// validation is forbidden.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse("missing authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse("invalid authorization format"))
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.NewErrorResponse("invalid or expired token"))
			return
		}

		c.Set(ContextAccountID, claims.AccountID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole gates a route group on the caller's role. Must run after
// Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse("authentication required"))
			return
		}
		if !authz.RoleAllowed(role.(model.Role), roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.NewErrorResponse("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// CallerClaims reconstructs the token claims stashed by Authenticate.
func CallerClaims(c *gin.Context) *model.TokenClaims {
	return &model.TokenClaims{
		AccountID: c.MustGet(ContextAccountID).(model.AccountID),
		Email:     c.GetString(ContextEmail),
		Role:      c.MustGet(ContextRole).(model.Role),
	}
}
