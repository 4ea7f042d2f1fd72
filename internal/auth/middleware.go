package auth

import (
	"net/http"
	"strings"

	"calendar-relay-backend/internal/logger"

	"github.com/gin-gonic/gin"
)

const authClaimsKey = "auth_claims"

// AuthMiddleware enforces bearer-token authentication on protected routes
type AuthMiddleware struct {
	service *AuthService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(service *AuthService) *AuthMiddleware {
	return &AuthMiddleware{service: service}
}

// RequireAuth validates the Authorization header and places the verified
// claims in the gin context. Any verification failure is a uniform 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := m.service.ValidateSessionToken(tokenString)
		if err != nil {
			logger.FromGinContext(c).Warnf("session token rejected: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// GetAuthClaims returns the verified claims placed in the context by RequireAuth
func GetAuthClaims(c *gin.Context) (*AuthClaims, bool) {
	value, exists := c.Get(authClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*AuthClaims)
	return claims, ok
}

// GetUserID returns the verified caller user id (the subject claim)
func GetUserID(c *gin.Context) (string, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok || claims == nil {
		return "", false
	}
	return claims.Subject, claims.Subject != ""
}
