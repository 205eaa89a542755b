package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/app"
	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/handlers"
	"github.com/charlesng35/teamhub/internal/middleware"
	"github.com/charlesng35/teamhub/internal/services"
	"github.com/charlesng35/teamhub/pkg/mail"
)

// Dependencies are the long-lived collaborators the router wires into handlers.
type Dependencies struct {
	DB        *gorm.DB
	Config    *app.Config
	Issuer    *auth.CredentialIssuer
	Codec     *auth.SessionCodec
	Mailer    mail.Mailer
	RateStore middleware.RateStore
}

// Services groups the domain services built for the router. Callers reuse
// them for background work such as maintenance.
type Services struct {
	Accounts      *services.AccountService
	Activity      *services.ActivityService
	Organizations *services.OrganizationService
	Members       *services.MemberService
	Teams         *services.TeamService
	Invites       *services.InviteService
}

// NewServices builds the domain services from deps.
func NewServices(deps Dependencies) (*Services, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Issuer == nil {
		return nil, fmt.Errorf("credential issuer must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	mailer := deps.Mailer
	if mailer == nil {
		mailer = mail.Disabled()
	}

	activity, err := services.NewActivityService(deps.DB)
	if err != nil {
		return nil, err
	}
	accounts, err := services.NewAccountService(deps.DB, deps.Issuer)
	if err != nil {
		return nil, err
	}
	orgs, err := services.NewOrganizationService(deps.DB, activity)
	if err != nil {
		return nil, err
	}
	members, err := services.NewMemberService(deps.DB, activity)
	if err != nil {
		return nil, err
	}
	teams, err := services.NewTeamService(deps.DB, activity)
	if err != nil {
		return nil, err
	}
	sender := mail.NewInviteSender(mailer, deps.Config.App.URL, deps.Config.Mail.From)
	invites, err := services.NewInviteService(deps.DB, deps.Issuer, sender, activity,
		services.WithInviteTTL(deps.Config.Invites.TTL),
	)
	if err != nil {
		return nil, err
	}

	return &Services{
		Accounts:      accounts,
		Activity:      activity,
		Organizations: orgs,
		Members:       members,
		Teams:         teams,
		Invites:       invites,
	}, nil
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Dependencies, svc *Services) (*gin.Engine, error) {
	if deps.Codec == nil {
		return nil, fmt.Errorf("session codec must be provided")
	}
	if svc == nil {
		var err error
		if svc, err = NewServices(deps); err != nil {
			return nil, err
		}
	}
	cfg := deps.Config

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Session.Secure))
	r.Use(middleware.Session(deps.Codec))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF("/api/auth/login", "/api/auth/signup"))
	}

	r.GET("/health", handlers.Health(deps.DB))
	if cfg.Server.Metrics.Enabled {
		endpoint := cfg.Server.Metrics.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	limit := middleware.RateLimit(nil, middleware.RateLimitConfig{})
	if cfg.RateLimit.Enabled {
		limit = middleware.RateLimit(deps.RateStore, middleware.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		})
	}

	authHandler, err := handlers.NewAuthHandler(svc.Accounts, deps.Codec)
	if err != nil {
		return nil, err
	}
	orgHandler, err := handlers.NewOrganizationHandler(svc.Organizations, svc.Members, deps.Codec)
	if err != nil {
		return nil, err
	}
	teamHandler, err := handlers.NewTeamHandler(svc.Teams)
	if err != nil {
		return nil, err
	}
	inviteHandler, err := handlers.NewInviteHandler(svc.Invites, deps.Codec, cfg.App.URL)
	if err != nil {
		return nil, err
	}
	activityHandler, err := handlers.NewActivityHandler(svc.Activity)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	registerAuthRoutes(api, authHandler, limit)
	api.GET("/invite/accept", limit, inviteHandler.Accept)

	protected := api.Group("")
	protected.Use(middleware.RequireSession())
	registerOrganizationRoutes(protected, orgHandler)
	registerTeamRoutes(protected, teamHandler)
	registerInviteRoutes(protected, inviteHandler)
	protected.GET("/activity-logs", activityHandler.List)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
