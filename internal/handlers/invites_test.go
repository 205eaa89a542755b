package handlers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamhub/internal/handlers/testutil"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/pkg/mail"
)

type orgPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type invitePayload struct {
	ID     string              `json:"id"`
	Email  string              `json:"email"`
	Role   models.Role         `json:"role"`
	Status models.InviteStatus `json:"status"`
}

func createOrganization(t *testing.T, env *testutil.Env, name string) orgPayload {
	t.Helper()
	w := env.Request(http.MethodPost, "/api/organization", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var org orgPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &org)
	return org
}

func TestInviteAcceptEndToEnd(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SignupOwner("olive@x.com", "Own3r!pass")
	require.Empty(t, env.Session().OrganizationID)

	org := createOrganization(t, env, "Acme Inc")
	require.Equal(t, "acme-inc", org.Slug)
	require.Equal(t, org.ID, env.Session().OrganizationID)
	require.Equal(t, models.RoleOwner, env.Session().Role)

	w := env.Request(http.MethodPost, "/api/invite", map[string]string{
		"email": "b@x.com", "name": "Bea", "role": "member",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "Invitation sent successfully", resp.Message)

	var created invitePayload
	testutil.DecodeInto(t, resp.Data, &created)
	require.Equal(t, models.InviteStatusPending, created.Status)
	require.NotContains(t, string(resp.Data), "token")

	var stored models.OrganizationInvite
	require.NoError(t, env.DB.Take(&stored, "id = ?", created.ID).Error)
	require.WithinDuration(t, stored.CreatedAt.Add(24*time.Hour), stored.ExpiresAt, time.Second)

	msg := env.Outbox.Last(t)
	require.Equal(t, mail.InviteSubject, msg.Subject)

	env.ClearCookies()
	w = env.Request(http.MethodGet, testutil.AcceptPath(t, msg), nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, testutil.AppURL, w.Header().Get("Location"))

	session := env.Session()
	require.Equal(t, models.RoleMember, session.Role)
	require.Equal(t, org.ID, session.OrganizationID)
	require.Equal(t, "Bea", session.FullName)

	require.NoError(t, env.DB.Take(&stored, "id = ?", created.ID).Error)
	require.Equal(t, models.InviteStatusAccepted, stored.Status)

	w = env.Request(http.MethodGet, testutil.AcceptPath(t, msg), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invitation is accepted", testutil.DecodeResponse(t, w).Message)
}

func TestInviteAcceptValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/invite/accept?token=abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Missing required parameters", testutil.DecodeResponse(t, w).Message)

	w = env.Request(http.MethodGet, "/api/invite/accept?token=abc&email=b@x.com&password=pw", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Invalid or expired invitation", testutil.DecodeResponse(t, w).Message)
}

func TestInviteListRevokeAndEmailFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SignupOwner("olive@x.com", "Own3r!pass")
	createOrganization(t, env, "Acme Inc")

	env.Outbox.Fail = errors.New("smtp down")
	w := env.Request(http.MethodPost, "/api/invite", map[string]string{"email": "c@x.com", "name": "Cy", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "Invitation created but email failed to send", testutil.DecodeResponse(t, w).Message)
	env.Outbox.Fail = nil

	w = env.Request(http.MethodPost, "/api/invite", map[string]string{"email": "c@x.com", "name": "Cy", "role": "admin"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.Request(http.MethodGet, "/api/invite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "Invites fetched successfully", resp.Message)
	var invites []invitePayload
	testutil.DecodeInto(t, resp.Data, &invites)
	require.Len(t, invites, 1)

	w = env.Request(http.MethodDelete, "/api/invite/"+invites[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Invitation revoked successfully", testutil.DecodeResponse(t, w).Message)

	w = env.Request(http.MethodDelete, "/api/invite/"+invites[0].ID, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Cannot revoke revoked invitation", testutil.DecodeResponse(t, w).Message)

	w = env.Request(http.MethodDelete, "/api/invite/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestInviteRequiresOrganizationAndRole(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SignupOwner("olive@x.com", "Own3r!pass")

	w := env.Request(http.MethodPost, "/api/invite", map[string]string{"email": "b@x.com", "name": "Bea", "role": "member"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No organization found", testutil.DecodeResponse(t, w).Message)

	createOrganization(t, env, "Acme Inc")

	w = env.Request(http.MethodPost, "/api/invite", map[string]string{"email": "b@x.com", "name": "Bea", "role": "owner"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid role. Must be admin or member", testutil.DecodeResponse(t, w).Message)

	w = env.Request(http.MethodPost, "/api/invite", map[string]string{"email": "not-an-email", "name": "Bea", "role": "member"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid email address", testutil.DecodeResponse(t, w).Message)
}
