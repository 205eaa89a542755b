package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/services"
	"github.com/charlesng35/teamhub/pkg/response"
)

// InviteHandler drives the invitation lifecycle over HTTP.
type InviteHandler struct {
	svc         *services.InviteService
	codec       *auth.SessionCodec
	redirectURL string
}

type createInviteRequest struct {
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email" validate:"omitempty,max=320"`
	Name           string `json:"name" validate:"omitempty,max=128"`
	Role           string `json:"role"`
	TeamID         string `json:"team_id"`
}

// NewInviteHandler constructs an InviteHandler. Accepted invitations redirect to redirectURL.
func NewInviteHandler(svc *services.InviteService, codec *auth.SessionCodec, redirectURL string) (*InviteHandler, error) {
	if svc == nil || codec == nil {
		return nil, errors.New("invite handler: service and session codec are required")
	}
	if redirectURL == "" {
		redirectURL = "/"
	}
	return &InviteHandler{svc: svc, codec: codec, redirectURL: redirectURL}, nil
}

// GET /api/invite
func (h *InviteHandler) List(c *gin.Context) {
	actor, _ := currentActor(c)
	invites, err := h.svc.ListPending(requestContext(c), actor, queryOrganization(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Invites fetched successfully", invites)
}

// POST /api/invite
func (h *InviteHandler) Create(c *gin.Context) {
	var body createInviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	actor, _ := currentActor(c)
	result, err := h.svc.Create(requestContext(c), actor, services.CreateInviteInput{
		OrganizationID: body.OrganizationID,
		Email:          body.Email,
		Name:           body.Name,
		Role:           body.Role,
		TeamID:         body.TeamID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if !result.EmailSent {
		response.Success(c, http.StatusCreated, "Invitation created but email failed to send", result.Invite)
		return
	}
	response.Success(c, http.StatusCreated, "Invitation sent successfully", result.Invite)
}

// DELETE /api/invite/:id
func (h *InviteHandler) Revoke(c *gin.Context) {
	actor, _ := currentActor(c)
	invite, err := h.svc.Revoke(requestContext(c), actor, queryOrganization(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Invitation revoked successfully", invite)
}

// GET /api/invite/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	desc, err := h.svc.Accept(requestContext(c), services.AcceptInviteInput{
		Token:    c.Query("token"),
		Email:    c.Query("email"),
		Password: c.Query("password"),
		Client:   clientInfo(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := writeSession(c, h.codec, desc); err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.redirectURL)
}
