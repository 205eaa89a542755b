package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/models"
)

// sessionPayload is the token-free view of a session returned to clients.
type sessionPayload struct {
	ProfileID      string      `json:"profile_id"`
	FullName       string      `json:"full_name"`
	Role           models.Role `json:"role"`
	OrganizationID string      `json:"organization_id"`
}

func newSessionPayload(desc *auth.SessionDescriptor) sessionPayload {
	return sessionPayload{
		ProfileID:      desc.ProfileID,
		FullName:       desc.FullName,
		Role:           desc.Role,
		OrganizationID: desc.OrganizationID,
	}
}

// writeSession seals desc into the session cookie.
func writeSession(c *gin.Context, codec *auth.SessionCodec, desc *auth.SessionDescriptor) error {
	value, err := codec.Encode(*desc)
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, codec.Cookie(value))
	return nil
}

func clearSession(c *gin.Context, codec *auth.SessionCodec) {
	http.SetCookie(c.Writer, codec.ClearCookie())
}
