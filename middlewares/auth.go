package middlewares

import (
	"errors"
	"net/http"

	"coursegen/utils"

	"github.com/gin-gonic/gin"
)

const UserIDKey = "userID"

// AuthMiddleware verifies the bearer JWT, requires scope when non-empty and
// stores the subject under UserIDKey.
func AuthMiddleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := utils.BearerToken(c.GetHeader("Authorization"))
		if errors.Is(err, utils.ErrMissingToken) {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization token"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid Authorization token format"})
			return
		}

		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}
		if scope != "" && !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}

		c.Set(UserIDKey, claims.Subject())
		c.Next()
	}
}
