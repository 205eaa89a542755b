package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/pkg/crypto"
)

const (
	// DefaultSessionCookieName is the cookie carrying the sealed session descriptor.
	DefaultSessionCookieName = "auth-cookie"
	// DefaultSessionTTL bounds how long a sealed descriptor is accepted.
	DefaultSessionTTL = 7 * 24 * time.Hour

	defaultSessionSalt = "teamhub-session-cookie"
)

var (
	// ErrInvalidSession is returned when a cookie cannot be opened or parsed.
	ErrInvalidSession = errors.New("session: invalid cookie")
	// ErrSessionExpired is returned when the embedded expiry has passed.
	ErrSessionExpired = errors.New("session: expired")
)

// SessionDescriptor is the authenticated caller carried in the session cookie.
type SessionDescriptor struct {
	ProfileID      string      `json:"profile_id"`
	AccessToken    string      `json:"access_token"`
	RefreshToken   string      `json:"refresh_token"`
	FullName       string      `json:"full_name"`
	Role           models.Role `json:"role"`
	OrganizationID string      `json:"organization_id,omitempty"`
}

// sealedSession is the plaintext that gets encrypted into the cookie.
type sealedSession struct {
	SessionDescriptor
	ExpiresAt int64 `json:"exp"`
}

// SessionCodecConfig configures a SessionCodec.
type SessionCodecConfig struct {
	Secret     string
	Salt       string
	CookieName string
	TTL        time.Duration
	Secure     bool
	Clock      func() time.Time
}

// SessionCodec seals descriptors into tamper-evident cookie values.
type SessionCodec struct {
	key    []byte
	name   string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionCodec derives the sealing key from the configured secret.
func NewSessionCodec(cfg SessionCodecConfig) (*SessionCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: secret must be provided")
	}

	salt := cfg.Salt
	if salt == "" {
		salt = defaultSessionSalt
	}
	key, err := crypto.DeriveKey([]byte(cfg.Secret), []byte(salt))
	if err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}

	name := cfg.CookieName
	if name == "" {
		name = DefaultSessionCookieName
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionCodec{key: key, name: name, ttl: ttl, secure: cfg.Secure, now: clock}, nil
}

// CookieName returns the configured cookie name.
func (c *SessionCodec) CookieName() string {
	return c.name
}

// Encode seals the descriptor together with its expiry.
func (c *SessionCodec) Encode(desc SessionDescriptor) (string, error) {
	if desc.ProfileID == "" {
		return "", errors.New("session: profile id is required")
	}

	payload, err := json.Marshal(sealedSession{
		SessionDescriptor: desc,
		ExpiresAt:         c.now().Add(c.ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("session: marshal: %w", err)
	}

	value, err := crypto.Encrypt(payload, c.key)
	if err != nil {
		return "", fmt.Errorf("session: seal: %w", err)
	}
	return value, nil
}

// Decode opens a cookie value. Any tampering, garbage or expiry yields an error.
func (c *SessionCodec) Decode(value string) (*SessionDescriptor, error) {
	if value == "" {
		return nil, ErrInvalidSession
	}

	plaintext, err := crypto.Decrypt(value, c.key)
	if err != nil {
		return nil, ErrInvalidSession
	}

	var sealed sealedSession
	if err := json.Unmarshal(plaintext, &sealed); err != nil {
		return nil, ErrInvalidSession
	}
	if sealed.ProfileID == "" || !sealed.Role.Valid() {
		return nil, ErrInvalidSession
	}
	if c.now().Unix() >= sealed.ExpiresAt {
		return nil, ErrSessionExpired
	}

	desc := sealed.SessionDescriptor
	return &desc, nil
}

// Cookie builds the Set-Cookie value for an encoded descriptor.
func (c *SessionCodec) Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		Expires:  c.now().Add(c.ttl),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that removes the session from the browser.
func (c *SessionCodec) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
