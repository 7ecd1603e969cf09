package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	auth "projectsync/internal/pkg/auth/application/domain"
)

const identityKey = "auth.identity"

// Verifier decodes a session credential.
type Verifier interface {
	Verify(token string) (auth.Identity, error)
}

// ExtractCredential finds the session credential on a request. Lookup order:
// Authorization bearer header, ?token= query parameter, then the session cookie.
func ExtractCredential(r *http.Request, cookieName string) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}

// RequireSession rejects requests without a valid credential and stores the
// decoded identity on the gin context.
func RequireSession(v Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.Verify(ExtractCredential(c.Request, cookieName))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity placed by RequireSession.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
