package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/middleware"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/internal/services"
	"github.com/charlesng35/teamhub/pkg/response"
)

// OrganizationHandler serves organizations and their memberships.
type OrganizationHandler struct {
	orgs    *services.OrganizationService
	members *services.MemberService
	codec   *auth.SessionCodec
}

type createOrganizationRequest struct {
	Name string `json:"name" validate:"omitempty,max=128"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

// NewOrganizationHandler constructs an OrganizationHandler.
func NewOrganizationHandler(orgs *services.OrganizationService, members *services.MemberService, codec *auth.SessionCodec) (*OrganizationHandler, error) {
	if orgs == nil || members == nil || codec == nil {
		return nil, errors.New("organization handler: services and session codec are required")
	}
	return &OrganizationHandler{orgs: orgs, members: members, codec: codec}, nil
}

// GET /api/organization
func (h *OrganizationHandler) List(c *gin.Context) {
	actor, _ := currentActor(c)
	orgs, err := h.orgs.ListForUser(requestContext(c), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(orgs) == 0 {
		response.Success(c, http.StatusOK, "No organizations found", []models.Organization{})
		return
	}
	response.Success(c, http.StatusOK, "Organizations fetched successfully", orgs)
}

// POST /api/organization
//
// A session without an organization is switched to the new one so the owner
// can continue without signing in again.
func (h *OrganizationHandler) Create(c *gin.Context) {
	var body createOrganizationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	actor, _ := currentActor(c)
	org, err := h.orgs.Create(requestContext(c), actor, services.CreateOrganizationInput{Name: body.Name})
	if err != nil {
		response.Error(c, err)
		return
	}

	if desc, ok := middleware.CurrentSession(c); ok && desc.OrganizationID == "" {
		updated := *desc
		updated.OrganizationID = org.ID
		if err := writeSession(c, h.codec, &updated); err != nil {
			response.Error(c, err)
			return
		}
	}

	response.Success(c, http.StatusCreated, "Organization created successfully", org)
}

// GET /api/organization/members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	actor, _ := currentActor(c)
	members, err := h.members.List(requestContext(c), actor, queryOrganization(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Members fetched successfully", members)
}

// PATCH /api/organization/members/:id
func (h *OrganizationHandler) UpdateMemberRole(c *gin.Context) {
	var body updateMemberRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	actor, _ := currentActor(c)
	change, err := h.members.UpdateRole(requestContext(c), actor, c.Param("id"), body.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Role updated successfully", change.Member)
}
