package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	kept := BaseModel{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	require.Equal(t, "fixed", kept.ID)
}

func TestActivityLogBeforeCreateGeneratesID(t *testing.T) {
	entry := &ActivityLog{}
	require.NoError(t, entry.BeforeCreate(nil))
	require.NotEmpty(t, entry.ID)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Admin ")
	require.True(t, ok)
	require.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("superuser")
	require.False(t, ok)

	require.True(t, RoleMember.Invitable())
	require.True(t, RoleAdmin.Invitable())
	require.False(t, RoleOwner.Invitable())
}

func TestInviteStatusTerminal(t *testing.T) {
	require.False(t, InviteStatusPending.Terminal())
	for _, s := range []InviteStatus{InviteStatusAccepted, InviteStatusRevoked, InviteStatusExpired} {
		require.True(t, s.Terminal(), s)
	}
}

func TestPendingInviteKeyNormalisesEmail(t *testing.T) {
	require.Equal(t, "org-1|bob@x.com", PendingInviteKey("org-1", "  Bob@X.com "))
}

func TestInviteExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	invite := OrganizationInvite{ExpiresAt: now}

	require.False(t, invite.Expired(now))
	require.True(t, invite.Expired(now.Add(time.Second)))
}

func TestSessionActive(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Hour)}
	require.True(t, s.Active(now))

	revoked := now
	s.RevokedAt = &revoked
	require.False(t, s.Active(now))
}
