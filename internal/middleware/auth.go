package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"astrawise/internal/config"
	"astrawise/internal/models"
)

// SessionValidator resolves an opaque session token to a user. It fails
// closed: any lookup miss or empty token is reported as invalid, never as
// an error.
type SessionValidator interface {
	Validate(token string) (*models.User, bool)
}

// ContextUserIDKey is the gin context key holding the authenticated user id.
const ContextUserIDKey = "userID"

// SessionAuth verifies the session cookie and sets the user in the context.
// Requests without a resolvable session are rejected with 401 before any
// handler runs.
func SessionAuth(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(config.Get().SessionCookieName)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Authentication required",
			}})
			c.Abort()
			return
		}

		user, ok := sessions.Validate(token)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Authentication required",
			}})
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}
