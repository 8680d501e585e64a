package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/jroosing/subzone/internal/auth"
)

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "subzone_session"

const (
	ownerKey     = "subzone.owner"
	sessionIDKey = "subzone.session_id"
)

// LoadSession resolves the session cookie, if any, and stores the owning
// token on the context. It never rejects a request; handlers decide how to
// treat anonymous callers.
func LoadSession(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err == nil && id != "" {
			if owner, ok := sessions.Lookup(id); ok {
				c.Set(ownerKey, owner)
				c.Set(sessionIDKey, id)
			}
		}
		c.Next()
	}
}

// Owner returns the ownership token of the current session.
func Owner(c *gin.Context) (string, bool) {
	owner := c.GetString(ownerKey)
	return owner, owner != ""
}

// SessionID returns the id of the current session.
func SessionID(c *gin.Context) (string, bool) {
	id := c.GetString(sessionIDKey)
	return id, id != ""
}
