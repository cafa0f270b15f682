package auth

import (
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/session"
)

const identityKey = "identity"

// Paths the gates redirect to.
const (
	SignInPath    = "/sign-in"
	ForbiddenPath = "/403"
)

// RequireAuth lets a request through only when the session holds a token
// issued less than ttl ago. Otherwise the session is ended and the client is
// sent to the sign-in page.
func RequireAuth(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.Get(c)
		id, ok := s.Identity()
		if !ok {
			c.Redirect(http.StatusFound, SignInPath)
			c.Abort()
			return
		}
		if id.Expired(ttl, time.Now()) {
			log.Info("Session token expired", "user_id", id.UserID, "issued_at", id.IssuedAt)
			if err := s.End(c.Request.Context(), session.ReasonExpired); err != nil {
				log.Error("Failed to end expired session", "error", err)
			}
			c.Redirect(http.StatusFound, SignInPath)
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole only lets identities with one of the allowed role ids through.
// It must run after RequireAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id.RoleID == "" || !slices.Contains(allowed, id.RoleID) {
			log.Debug("Role not allowed", "user_id", id.UserID, "role", id.RoleID, "path", c.Request.URL.Path)
			c.Redirect(http.StatusFound, ForbiddenPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity RequireAuth attached to c.
func CurrentIdentity(c *gin.Context) session.Identity {
	id, _ := c.MustGet(identityKey).(session.Identity)
	return id
}
