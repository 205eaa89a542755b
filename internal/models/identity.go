package models

import "time"

// Identity is the credential record owned by the credential issuer.
type Identity struct {
	BaseModel

	Email        string     `gorm:"size:320;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}
