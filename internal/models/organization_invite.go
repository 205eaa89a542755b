package models

import (
	"strings"
	"time"
)

// InviteStatus is the lifecycle state of an invitation. Only pending is not terminal.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
	InviteStatusExpired  InviteStatus = "expired"
)

// Terminal reports whether no further transition is allowed from s.
func (s InviteStatus) Terminal() bool {
	return s != InviteStatusPending
}

// OrganizationInvite is an offer of organization membership bound to an email
// and an unguessable token.
//
// PendingKey is non-null only while the invite is pending. Its unique index is
// what guarantees a single pending invite per organization and email; NULLs
// never collide, so settled invites do not block new ones.
type OrganizationInvite struct {
	BaseModel

	OrganizationID string       `gorm:"size:36;not null;index" json:"organization_id"`
	InviterID      string       `gorm:"size:36;not null" json:"inviter_id"`
	Email          string       `gorm:"size:320;not null;index" json:"email"`
	Role           Role         `gorm:"size:16;not null" json:"role"`
	Token          string       `gorm:"size:128;not null;uniqueIndex" json:"-"`
	Status         InviteStatus `gorm:"size:16;not null;index" json:"status"`
	ExpiresAt      time.Time    `gorm:"not null;index" json:"expires_at"`
	AcceptedAt     *time.Time   `json:"accepted_at,omitempty"`
	PendingKey     *string      `gorm:"size:400;uniqueIndex" json:"-"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

// PendingInviteKey builds the value stored in PendingKey for a pending invite.
func PendingInviteKey(organizationID, email string) string {
	return organizationID + "|" + NormalizeEmail(email)
}

// NormalizeEmail lowercases and trims an address for comparisons and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Expired reports whether the invite is past its expiry at now.
func (i *OrganizationInvite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
