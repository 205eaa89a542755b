package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/teamhub/pkg/logger"
)

const (
	defaultInviteSpec  = "@every 15m"
	defaultSessionSpec = "@hourly"
)

// InviteExpirer settles pending invites whose deadline has passed.
type InviteExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// SessionPurger removes expired or revoked refresh sessions.
type SessionPurger interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance: expiring stale invites and
// purging dead refresh sessions.
type Cleaner struct {
	invites  InviteExpirer
	sessions SessionPurger
	cron     *cron.Cron
	log      *zap.Logger

	inviteSchedule  string
	sessionSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithInviteSchedule overrides the cron specification for invite expiry.
func WithInviteSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.inviteSchedule = spec
		}
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips the corresponding job.
func NewCleaner(invites InviteExpirer, sessions SessionPurger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		invites:         invites,
		sessions:        sessions,
		inviteSchedule:  defaultInviteSpec,
		sessionSchedule: defaultSessionSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one job is configured.
func (c *Cleaner) Start() error {
	if c.invites == nil && c.sessions == nil {
		return nil
	}

	if c.invites != nil {
		if _, err := c.cron.AddFunc(c.inviteSchedule, func() { c.expireInvites(context.Background()) }); err != nil {
			return err
		}
	}

	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() { c.purgeSessions(context.Background()) }); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler; the returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured cleanup sequentially and aggregates failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.invites != nil {
		if _, err := c.invites.ExpireStale(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.sessions != nil {
		if _, err := c.sessions.CleanupExpiredSessions(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (c *Cleaner) expireInvites(ctx context.Context) {
	count, err := c.invites.ExpireStale(ctx)
	if err != nil {
		c.log.Warn("invite expiry failed", zap.Error(err))
		return
	}
	if count > 0 {
		c.log.Info("expired stale invites", zap.Int64("count", count))
	}
}

func (c *Cleaner) purgeSessions(ctx context.Context) {
	count, err := c.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		c.log.Warn("session cleanup failed", zap.Error(err))
		return
	}
	if count > 0 {
		c.log.Debug("purged refresh sessions", zap.Int64("count", count))
	}
}
