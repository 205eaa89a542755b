package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/api"
	"github.com/charlesng35/teamhub/internal/app"
	"github.com/charlesng35/teamhub/internal/app/maintenance"
	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/cache"
	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/internal/middleware"
	"github.com/charlesng35/teamhub/internal/services"
	"github.com/charlesng35/teamhub/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisStore
	Issuer    *auth.CredentialIssuer
	Services  *api.Services
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine

	stopRateStore context.CancelFunc
}

// bootstrapRuntime initialises the database, cache, services and HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	gin.SetMode(ginMode(cfg.Server.Mode))

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := auth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}
	stack.Issuer, err = auth.NewCredentialIssuer(stack.DB, jwtSvc, cfg.Auth.IssuerConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise credential issuer: %w", err)
	}
	codec, err := auth.NewSessionCodec(cfg.Session.CodecConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise session codec: %w", err)
	}

	mailer, err := cfg.Mail.Mailer()
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	stack.RateStore, err = stack.buildRateStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	deps := api.Dependencies{
		DB:        stack.DB,
		Config:    cfg,
		Issuer:    stack.Issuer,
		Codec:     codec,
		Mailer:    mailer,
		RateStore: stack.RateStore,
	}
	stack.Services, err = api.NewServices(deps)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = newCleanerFor(stack.Services.Invites, stack.Issuer, cfg)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(deps, stack.Services)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func (s *runtimeStack) buildRateStore(ctx context.Context, cfg *app.Config, log *zap.Logger) (middleware.RateStore, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.RateLimit.Store)) {
	case "redis":
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.Redis = store
		log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		return middleware.NewRedisRateStore(store), nil
	case "", "memory":
		storeCtx, cancel := context.WithCancel(context.Background())
		s.stopRateStore = cancel
		return middleware.NewMemoryRateStore(storeCtx), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit store %q", cfg.RateLimit.Store)
	}
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.stopRateStore != nil {
		s.stopRateStore()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

// newCleaner builds a standalone Cleaner for one-off sweeps.
func newCleaner(db *gorm.DB, cfg *app.Config) (*maintenance.Cleaner, error) {
	jwtSvc, err := auth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}
	issuer, err := auth.NewCredentialIssuer(db, jwtSvc, cfg.Auth.IssuerConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise credential issuer: %w", err)
	}
	activity, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	invites, err := services.NewInviteService(db, issuer, nil, activity, services.WithInviteTTL(cfg.Invites.TTL))
	if err != nil {
		return nil, err
	}
	return newCleanerFor(invites, issuer, cfg), nil
}

func newCleanerFor(invites maintenance.InviteExpirer, sessions maintenance.SessionPurger, cfg *app.Config) *maintenance.Cleaner {
	return maintenance.NewCleaner(invites, sessions,
		maintenance.WithInviteSchedule(cfg.Maintenance.InviteSchedule),
		maintenance.WithSessionSchedule(cfg.Maintenance.SessionSchedule),
	)
}

func ginMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case gin.DebugMode:
		return gin.DebugMode
	case gin.TestMode:
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.Settings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
