package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quill/auth"
)

const identityKey = "identity"

// RequireAuth validates the bearer token on protected routes and attaches
// the resolved identity to the request context. It never mutates anything
// else; handlers read the identity back with Identity().
func RequireAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be: Bearer <token>"})
			c.Abort()
			return
		}

		ident, err := tokens.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// Identity returns the acting identity set by RequireAuth.
func Identity(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return auth.Identity{}, false
	}
	ident, ok := v.(auth.Identity)
	return ident, ok
}
