package models

import "time"

// Session is a refresh token issued by the credential issuer. Only the hash of
// the token is stored.
type Session struct {
	BaseModel

	IdentityID       string     `gorm:"size:36;not null;index" json:"identity_id"`
	RefreshTokenHash string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	IPAddress        string     `gorm:"size:64" json:"ip_address"`
	UserAgent        string     `gorm:"size:512" json:"user_agent"`
	ExpiresAt        time.Time  `gorm:"index" json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session can still be used at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
