package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamhub/internal/services"
	"github.com/charlesng35/teamhub/pkg/response"
)

type TeamHandler struct {
	svc *services.TeamService
}

type createTeamRequest struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name" validate:"omitempty,max=128"`
	Slug           string `json:"slug" validate:"omitempty,max=128"`
	Description    string `json:"description" validate:"omitempty,max=512"`
}

func NewTeamHandler(svc *services.TeamService) (*TeamHandler, error) {
	if svc == nil {
		return nil, errors.New("team handler: service is required")
	}
	return &TeamHandler{svc: svc}, nil
}

// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	actor, _ := currentActor(c)
	teams, err := h.svc.List(requestContext(c), actor, queryOrganization(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Teams fetched successfully", teams)
}

// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var body createTeamRequest
	if !bindAndValidate(c, &body) {
		return
	}

	actor, _ := currentActor(c)
	team, err := h.svc.Create(requestContext(c), actor, services.CreateTeamInput{
		OrganizationID: body.OrganizationID,
		Name:           body.Name,
		Slug:           body.Slug,
		Description:    body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Team created successfully", team)
}

// GET /api/teams/:id/members
func (h *TeamHandler) ListMembers(c *gin.Context) {
	actor, _ := currentActor(c)
	members, err := h.svc.ListMembers(requestContext(c), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Team members fetched successfully", members)
}
