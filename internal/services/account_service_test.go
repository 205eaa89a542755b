package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/models"
)

func TestAccountRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", FirstName: "A", Role: "owner"})
	requireAppError(t, err, http.StatusBadRequest, "Missing required fields")

	_, err = f.accounts.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", FirstName: "A", LastName: "B", Role: "root"})
	requireAppError(t, err, http.StatusBadRequest, "Invalid role. Must be owner, admin, or member")

	_, err = f.accounts.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", FirstName: "A", LastName: "B", Role: "member"})
	requireAppError(t, err, http.StatusBadRequest, "organization_id is required for admin and member roles")

	_, err = f.accounts.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", FirstName: "A", LastName: "B", Role: "member", OrganizationID: "nope"})
	requireAppError(t, err, http.StatusNotFound, "Organization not found")
}

func TestAccountRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := RegisterInput{Email: "a@x.com", Password: "pw", FirstName: "Ann", LastName: "Lee", Role: "owner"}
	account, err := f.accounts.Register(ctx, input)
	require.NoError(t, err)
	require.Equal(t, "Ann Lee", account.FullName)
	require.Equal(t, models.RoleOwner, account.Role)

	input.Email = "A@X.com"
	_, err = f.accounts.Register(ctx, input)
	requireAppError(t, err, http.StatusConflict, "User with this email already exists")
}

func TestAccountRegisterMembershipFailureDeletesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, org := f.ownerWithOrg(t, "o@x.com", "Acme Inc")

	failCreate(t, f.db, "organization_members")

	_, err := f.accounts.Register(ctx, RegisterInput{
		Email: "m@x.com", Password: "pw", FirstName: "M", LastName: "N", Role: "member", OrganizationID: org.ID,
	})
	requireAppError(t, err, http.StatusInternalServerError, "Failed to add user to organization")
	require.Zero(t, f.count(t, &models.Identity{}, "email = ?", "m@x.com"))
	require.Zero(t, f.count(t, &models.Profile{}, "email = ?", "m@x.com"))
}

func TestAccountLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, RegisterInput{Email: "solo@x.com", Password: "pw-solo", FirstName: "Solo", LastName: "Owner", Role: "owner"})
	require.NoError(t, err)

	desc, err := f.accounts.Login(ctx, "solo@x.com", "pw-solo", auth.ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, desc.Role)
	require.Empty(t, desc.OrganizationID)

	_, org := f.ownerWithOrg(t, "o@x.com", "Acme Inc")
	f.addMember(t, org, "mia@x.com", "Mia", models.RoleMember)

	desc, err = f.accounts.Login(ctx, "mia@x.com", "Memb3r!pass", auth.ClientInfo{UserAgent: "test"})
	require.NoError(t, err)
	require.Equal(t, models.RoleMember, desc.Role)
	require.Equal(t, org.ID, desc.OrganizationID)
	require.Equal(t, "Mia Test", desc.FullName)

	_, err = f.accounts.Login(ctx, "mia@x.com", "wrong", auth.ClientInfo{})
	requireAppError(t, err, http.StatusUnauthorized, "Invalid email or password")

	_, err = f.accounts.Login(ctx, "", "", auth.ClientInfo{})
	requireAppError(t, err, http.StatusBadRequest, "Email and password are required")

	require.NoError(t, f.accounts.Logout(ctx, desc))
	_, err = f.issuer.Refresh(ctx, desc.RefreshToken)
	require.ErrorIs(t, err, auth.ErrSessionNotFound)

	require.NoError(t, f.accounts.Logout(ctx, desc))
	require.NoError(t, f.accounts.Logout(ctx, nil))
}
