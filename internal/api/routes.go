package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamhub/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, limit gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", limit, h.Login)
		auth.POST("/signup", limit, h.Signup)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
		auth.GET("/check", h.Check)
	}
}

func registerOrganizationRoutes(api *gin.RouterGroup, h *handlers.OrganizationHandler) {
	org := api.Group("/organization")
	{
		org.GET("", h.List)
		org.POST("", h.Create)
		org.GET("/members", h.ListMembers)
		org.PATCH("/members/:id", h.UpdateMemberRole)
	}
}

// Both /teams and /team are served; clients use either.
func registerTeamRoutes(api *gin.RouterGroup, h *handlers.TeamHandler) {
	for _, prefix := range []string{"/teams", "/team"} {
		teams := api.Group(prefix)
		teams.GET("", h.List)
		teams.POST("", h.Create)
	}
	api.GET("/teams/:id/members", h.ListMembers)
}

func registerInviteRoutes(api *gin.RouterGroup, h *handlers.InviteHandler) {
	invites := api.Group("/invite")
	{
		invites.GET("", h.List)
		invites.POST("", h.Create)
		invites.DELETE("/:id", h.Revoke)
	}
}
