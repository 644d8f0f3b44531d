package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

const sessionKey = "wizard_session"

// SessionParser verifies a bearer token and names the session it belongs to.
type SessionParser interface {
	Parse(raw string) (domain.SessionContext, error)
}

// RequireSession rejects requests without a valid session token. Browsers
// cannot set headers on websocket upgrades, so ?token= is accepted as well.
func RequireSession(p SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("token"))
		}
		sess, err := p.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "invalid or missing session token",
				"code":       "unauthorized",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GetSession returns the session set by RequireSession.
func GetSession(c *gin.Context) (domain.SessionContext, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return domain.SessionContext{}, false
	}
	sess, ok := v.(domain.SessionContext)
	return sess, ok
}
