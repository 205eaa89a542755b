package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamhub/internal/models"
)

func newCodec(t *testing.T, clock *fakeClock) *SessionCodec {
	t.Helper()
	codec, err := NewSessionCodec(SessionCodecConfig{Secret: "cookie-secret", Clock: clock.Now})
	require.NoError(t, err)
	return codec
}

func sampleDescriptor() SessionDescriptor {
	return SessionDescriptor{
		ProfileID:      "profile-1",
		AccessToken:    "access",
		RefreshToken:   "refresh",
		FullName:       "Alice Owner",
		Role:           models.RoleOwner,
		OrganizationID: "org-1",
	}
}

func TestSessionCodecRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	codec := newCodec(t, clock)

	value, err := codec.Encode(sampleDescriptor())
	require.NoError(t, err)
	require.NotContains(t, value, "Alice")

	desc, err := codec.Decode(value)
	require.NoError(t, err)
	require.Equal(t, sampleDescriptor(), *desc)
}

func TestSessionCodecRejectsTampering(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	codec := newCodec(t, clock)

	value, err := codec.Encode(sampleDescriptor())
	require.NoError(t, err)

	mid := len(value) / 2
	flipped := byte('A')
	if value[mid] == 'A' {
		flipped = 'B'
	}
	tampered := value[:mid] + string(flipped) + value[mid+1:]

	_, err = codec.Decode(tampered)
	require.ErrorIs(t, err, ErrInvalidSession)

	_, err = codec.Decode("not-a-cookie")
	require.ErrorIs(t, err, ErrInvalidSession)

	_, err = codec.Decode("")
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionCodecRejectsForeignKey(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	codec := newCodec(t, clock)

	other, err := NewSessionCodec(SessionCodecConfig{Secret: "another-secret", Clock: clock.Now})
	require.NoError(t, err)

	value, err := other.Encode(sampleDescriptor())
	require.NoError(t, err)

	_, err = codec.Decode(value)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionCodecExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	codec := newCodec(t, clock)

	value, err := codec.Encode(sampleDescriptor())
	require.NoError(t, err)

	clock.now = clock.now.Add(DefaultSessionTTL + time.Second)
	_, err = codec.Decode(value)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionCookieAttributes(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	codec, err := NewSessionCodec(SessionCodecConfig{Secret: "cookie-secret", Secure: true, Clock: clock.Now})
	require.NoError(t, err)

	cookie := codec.Cookie("sealed")
	require.Equal(t, DefaultSessionCookieName, cookie.Name)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, int(DefaultSessionTTL/time.Second), cookie.MaxAge)

	cleared := codec.ClearCookie()
	require.Equal(t, -1, cleared.MaxAge)
	require.Empty(t, cleared.Value)
}

func TestNewSessionCodecRequiresSecret(t *testing.T) {
	_, err := NewSessionCodec(SessionCodecConfig{})
	require.Error(t, err)
}
