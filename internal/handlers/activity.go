package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamhub/internal/services"
	"github.com/charlesng35/teamhub/pkg/response"
)

type ActivityHandler struct {
	svc *services.ActivityService
}

func NewActivityHandler(svc *services.ActivityService) (*ActivityHandler, error) {
	if svc == nil {
		return nil, errors.New("activity handler: service is required")
	}
	return &ActivityHandler{svc: svc}, nil
}

// GET /api/activity-logs
func (h *ActivityHandler) List(c *gin.Context) {
	actor, _ := currentActor(c)
	entries, err := h.svc.List(requestContext(c), actor, queryOrganization(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Activity logs fetched successfully", entries)
}
