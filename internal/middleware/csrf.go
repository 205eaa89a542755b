package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/teamhub/pkg/crypto"
	"github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/logger"
	"github.com/charlesng35/teamhub/pkg/response"
)

const (
	// CSRFCookieName holds the double-submit token readable by browser clients.
	CSRFCookieName = "teamhub_csrf"
	// CSRFHeaderName must echo the cookie on mutating requests.
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenBytes = 48
	csrfTokenTTL   = 12 * 60 * 60
)

type csrfGuard struct {
	exempt map[string]struct{}
}

// CSRF guards cookie-authenticated mutations with a double-submit token.
// Reads refresh the token and expose it in X-CSRF-Token; POST, PUT, PATCH and
// DELETE must send it back. Routes in exempt (login, signup) run before a
// session cookie exists and are not checked.
func CSRF(exempt ...string) gin.HandlerFunc {
	g := &csrfGuard{exempt: make(map[string]struct{}, len(exempt))}
	for _, route := range exempt {
		g.exempt[route] = struct{}{}
	}
	return g.handle
}

func (g *csrfGuard) handle(c *gin.Context) {
	if c.Request.Method == http.MethodOptions || g.isExempt(c.FullPath()) {
		c.Next()
		return
	}

	token, fresh, err := g.token(c)
	if err != nil {
		response.Abort(c, errors.ErrInternalServer)
		return
	}

	if !mutates(c.Request.Method) {
		c.Header(CSRFHeaderName, token)
		c.Next()
		return
	}

	echoed := strings.TrimSpace(c.GetHeader(CSRFHeaderName))
	if !tokensMatch(token, echoed) {
		logger.WithModule("csrf").Warn("csrf token rejected",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Bool("fresh_cookie", fresh),
		)
		response.Abort(c, errors.ErrCSRFInvalid)
		return
	}
	c.Next()
}

func (g *csrfGuard) isExempt(route string) bool {
	_, ok := g.exempt[route]
	return ok
}

// token returns the caller's current token, minting one when the cookie is
// missing. The cookie is rewritten either way to slide its expiry.
func (g *csrfGuard) token(c *gin.Context) (string, bool, error) {
	token, err := c.Cookie(CSRFCookieName)
	fresh := err != nil || token == ""
	if fresh {
		if token, err = crypto.GenerateToken(csrfTokenBytes); err != nil {
			return "", false, err
		}
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CSRFCookieName, token, csrfTokenTTL, "/", "", viaTLS(c.Request), false)
	return token, fresh, nil
}

func viaTLS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func mutates(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func tokensMatch(expected, got string) bool {
	if expected == "" || len(expected) != len(got) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
