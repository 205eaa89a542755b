package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/pkg/logger"
)

func TestActivityListNewestFirstWithActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, org := f.ownerWithOrg(t, "o@x.com", "Acme Inc")
	_, err := f.teams.Create(ctx, owner, CreateTeamInput{Name: "Platform"})
	require.NoError(t, err)

	entries, err := f.activity.List(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.ActivityTeamCreated, entries[0].ActionType)
	require.Equal(t, models.ActivityOrganizationCreated, entries[1].ActionType)
	require.NotNil(t, entries[0].Actor)
	require.Equal(t, "Olive Owner", entries[0].Actor.FullName)

	entries, err = f.activity.List(ctx, owner, org.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = f.activity.List(ctx, Actor{}, org.ID)
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")
}

func TestRecordActivityToleratesFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	previous := logger.Logger()
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(previous) })

	f := newFixture(t)
	recordActivity(f.activity, context.Background(), ActivityEntry{ActionType: models.ActivityTeamCreated})
	recordActivity(nil, context.Background(), ActivityEntry{})

	require.Equal(t, 1, logs.FilterMessage("failed to record activity").Len())
	require.Zero(t, f.count(t, &models.ActivityLog{}, "1 = 1"))
}
