package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/auth"
	"go.uber.org/zap"
)

const identityKey = "identity"

// TokenVerifier is satisfied by *auth.Verifier.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// RequireUser accepts a bearer token or the session cookie and aborts with 401 otherwise.
func RequireUser(verifier TokenVerifier, cookieName string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			abortUnauthorized(c, "missing access token")
			return
		}
		id, err := verifier.Verify(token)
		if err != nil {
			log.Debug("rejected token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			abortUnauthorized(c, "invalid access token")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// TokenFromRequest prefers the Authorization header over the cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.Unauthorized(message).Response())
}

// Identity returns the caller set by RequireUser.
func Identity(c *gin.Context) *auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*auth.Identity); ok {
			return id
		}
	}
	return nil
}

// UserID is the current user's id, or "" outside RequireUser.
func UserID(c *gin.Context) string {
	if id := Identity(c); id != nil {
		return id.UserID
	}
	return ""
}
