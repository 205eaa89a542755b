package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/middleware"
	"github.com/charlesng35/teamhub/internal/services"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentActor converts the decoded session into the services view of the caller.
func currentActor(c *gin.Context) (services.Actor, bool) {
	desc, ok := middleware.CurrentSession(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{
		ProfileID:      desc.ProfileID,
		FullName:       desc.FullName,
		Role:           desc.Role,
		OrganizationID: desc.OrganizationID,
	}, true
}

func clientInfo(c *gin.Context) auth.ClientInfo {
	return auth.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func queryOrganization(c *gin.Context) string {
	return strings.TrimSpace(c.Query("organization_id"))
}
