package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/teamhub/internal/auth"
	testutil "github.com/charlesng35/teamhub/internal/database/testutil"
	"github.com/charlesng35/teamhub/pkg/logger"
)

type stubJob struct {
	calls atomic.Int64
	count int64
	err   error
}

func (s *stubJob) ExpireStale(context.Context) (int64, error) {
	s.calls.Add(1)
	return s.count, s.err
}

func (s *stubJob) CleanupExpiredSessions(context.Context) (int64, error) {
	s.calls.Add(1)
	return s.count, s.err
}

func TestCleanerRunOnceAggregatesErrors(t *testing.T) {
	invites := &stubJob{err: errors.New("invites down")}
	sessions := &stubJob{err: errors.New("sessions down")}

	err := NewCleaner(invites, sessions).RunOnce(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.EqualValues(t, 1, invites.calls.Load())
	require.EqualValues(t, 1, sessions.calls.Load())
}

func TestCleanerRunOnceWithIssuer(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "maintenance-secret", Clock: clock})
	require.NoError(t, err)
	issuer, err := auth.NewCredentialIssuer(db, jwtSvc, auth.IssuerConfig{RefreshTokenTTL: time.Hour, Clock: clock})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = issuer.SignUp(ctx, auth.SignUpInput{Email: "a@x.com", Password: "pw", FullName: "A"})
	require.NoError(t, err)
	creds, err := issuer.SignIn(ctx, "a@x.com", "pw", auth.ClientInfo{})
	require.NoError(t, err)
	require.NoError(t, issuer.SignOut(ctx, creds.RefreshToken))

	require.NoError(t, NewCleaner(nil, issuer).RunOnce(ctx))

	removed, err := issuer.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestCleanerStartSchedulesJobs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := logger.Logger()
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(previous) })

	invites := &stubJob{count: 3}
	sessions := &stubJob{}
	c := cron.New(cron.WithSeconds())
	cleaner := NewCleaner(invites, sessions,
		WithCron(c),
		WithInviteSchedule("@every 1s"),
		WithSessionSchedule("@every 1s"),
	)

	require.NoError(t, cleaner.Start())
	require.Len(t, c.Entries(), 2)

	require.Eventually(t, func() bool {
		return invites.calls.Load() > 0 && sessions.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
	<-cleaner.Stop().Done()

	require.Positive(t, logs.FilterMessage("expired stale invites").Len())
}

func TestCleanerStartWithoutJobs(t *testing.T) {
	c := cron.New()
	cleaner := NewCleaner(nil, nil, WithCron(c))
	require.NoError(t, cleaner.Start())
	require.Empty(t, c.Entries())
	<-cleaner.Stop().Done()
}

func TestCleanerRejectsInvalidSchedule(t *testing.T) {
	cleaner := NewCleaner(&stubJob{}, nil, WithInviteSchedule("not a schedule"))
	require.Error(t, cleaner.Start())
}
