package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/internal/permissions"
	apperrors "github.com/charlesng35/teamhub/pkg/errors"
)

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.StatusCode)
	require.Equal(t, message, appErr.Message)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Inc":            "acme-inc",
		"  Acme   Inc.  ":     "acme-inc",
		"R&D / Platform Team": "r-d-platform-team",
		"---":                 "",
		"Café 42":             "caf-42",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), in)
	}
}

func TestScopeActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, alpha := f.ownerWithOrg(t, "olive@x.com", "Alpha")
	_, beta := f.ownerWithOrg(t, "oscar@x.com", "Beta")
	admin, adminMembership := f.addMember(t, alpha, "adam@x.com", "Adam", models.RoleAdmin)
	member, _ := f.addMember(t, alpha, "mia@x.com", "Mia", models.RoleMember)

	scoped, err := scopeActor(ctx, f.db, owner, "")
	require.NoError(t, err)
	require.Equal(t, alpha.ID, scoped.OrganizationID)
	require.Equal(t, models.RoleOwner, scoped.Role)

	scoped, err = scopeActor(ctx, f.db, admin, " "+alpha.ID+" ")
	require.NoError(t, err)
	require.Equal(t, alpha.ID, scoped.OrganizationID)

	for _, actor := range []Actor{admin, member, owner} {
		_, err = scopeActor(ctx, f.db, actor, beta.ID)
		requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")
	}

	gamma, err := f.orgs.Create(ctx, owner, CreateOrganizationInput{Name: "Gamma"})
	require.NoError(t, err)
	scoped, err = scopeActor(ctx, f.db, owner, gamma.ID)
	require.NoError(t, err)
	require.Equal(t, gamma.ID, scoped.OrganizationID)
	require.Equal(t, models.RoleOwner, scoped.Role)

	_, err = scopeActor(ctx, f.db, Actor{}, "")
	requireAppError(t, err, http.StatusBadRequest, "No organization found")

	_, err = scopeActor(ctx, f.db, Actor{OrganizationID: alpha.ID}, "")
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")

	require.NoError(t, f.db.Model(&models.OrganizationMember{}).
		Where("id = ?", adminMembership.ID).Update("role", models.RoleMember).Error)
	scoped, err = scopeActor(ctx, f.db, admin, "")
	require.NoError(t, err)
	require.Equal(t, models.RoleMember, scoped.Role, "role comes from the membership row")
}

func TestCrossTenantAccessDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, alpha := f.ownerWithOrg(t, "olive@x.com", "Alpha")
	_, beta := f.ownerWithOrg(t, "oscar@x.com", "Beta")
	admin, _ := f.addMember(t, alpha, "adam@x.com", "Adam", models.RoleAdmin)
	member, _ := f.addMember(t, alpha, "mia@x.com", "Mia", models.RoleMember)

	_, err := f.teams.Create(ctx, admin, CreateTeamInput{OrganizationID: beta.ID, Name: "Intruders"})
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")
	require.Zero(t, f.count(t, &models.Team{}, "organization_id = ?", beta.ID))

	_, err = f.teams.List(ctx, admin, beta.ID)
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")

	_, err = f.members.List(ctx, member, beta.ID)
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")

	_, err = f.activity.List(ctx, member, beta.ID)
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")

	_, err = f.invites.Create(ctx, admin, CreateInviteInput{OrganizationID: beta.ID, Email: "b@x.com", Name: "Bea", Role: "member"})
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")

	_, err = f.invites.ListPending(ctx, admin, beta.ID)
	requireAppError(t, err, http.StatusForbidden, "You do not have access to this organization")
	require.Zero(t, f.count(t, &models.OrganizationInvite{}, "1 = 1"))
}

func TestOwnerSwitchesToOwnedOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, alpha := f.ownerWithOrg(t, "olive@x.com", "Alpha")
	gamma, err := f.orgs.Create(ctx, owner, CreateOrganizationInput{Name: "Gamma"})
	require.NoError(t, err)
	require.Equal(t, alpha.ID, owner.OrganizationID)

	team, err := f.teams.Create(ctx, owner, CreateTeamInput{OrganizationID: gamma.ID, Name: "Ops"})
	require.NoError(t, err)
	require.Equal(t, gamma.ID, team.OrganizationID)

	teams, err := f.teams.List(ctx, owner, gamma.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	teams, err = f.teams.List(ctx, owner, "")
	require.NoError(t, err)
	require.Empty(t, teams)

	members, err := f.members.List(ctx, owner, gamma.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	entries, err := f.activity.List(ctx, owner, gamma.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		require.Equal(t, gamma.ID, entry.OrganizationID)
	}
}

func TestAuthorizeMapsDenialToForbidden(t *testing.T) {
	require.NoError(t, authorize(permissions.Request{Actor: models.RoleAdmin, Action: permissions.ActionCreateTeam}))

	err := authorize(permissions.Request{Actor: models.RoleMember, Action: permissions.ActionCreateTeam})
	requireAppError(t, err, http.StatusForbidden, "Only owners and admins can create teams")
}
