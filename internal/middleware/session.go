package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/logger"
	"github.com/charlesng35/teamhub/pkg/response"
)

// CtxSessionKey holds the decoded *auth.SessionDescriptor.
const CtxSessionKey = "session"

// Session decodes the session cookie, when present, and stores the descriptor
// in the gin context. Requests without a valid cookie continue anonymously.
func Session(codec *auth.SessionCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(codec.CookieName())
		if err != nil || value == "" {
			c.Next()
			return
		}

		desc, err := codec.Decode(value)
		if err != nil {
			logger.WithModule("session").Debug("discarding session cookie",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Set(CtxSessionKey, desc)
		c.Next()
	}
}

// RequireSession rejects requests that carry no valid session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			response.Abort(c, errors.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// CurrentSession returns the descriptor decoded by Session.
func CurrentSession(c *gin.Context) (*auth.SessionDescriptor, bool) {
	value, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil, false
	}
	desc, ok := value.(*auth.SessionDescriptor)
	return desc, ok && desc != nil
}
