package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
)

// UserKey is the gin context key RequireSession stores the signed-in user under.
const UserKey = "user"

// UserSource reports the signed-in user, nil when anonymous.
type UserSource interface {
	CurrentUser() *models.User
}

// RequireSession rejects requests while nobody is signed in and exposes the
// user to later handlers under UserKey.
func RequireSession(src UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := src.CurrentUser()
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		c.Set(UserKey, u)
		c.Next()
	}
}

// CurrentUser returns the user RequireSession stored, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// CORS allows the UI origin to call the bridge. An empty origin allows any.
func CORS(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Page-URL, X-Popups-Allowed")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
