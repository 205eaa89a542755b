package services

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/database/testutil"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/pkg/mail"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type outbox struct {
	mu       sync.Mutex
	messages []mail.Message
	fail     error
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *outbox) last(t *testing.T) mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.messages)
	return o.messages[len(o.messages)-1]
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// acceptParams pulls token, email and password out of an invitation email.
func acceptParams(t *testing.T, msg mail.Message) url.Values {
	t.Helper()
	match := hrefPattern.FindStringSubmatch(msg.Body)
	require.Len(t, match, 2)
	link, err := url.Parse(html.UnescapeString(match[1]))
	require.NoError(t, err)
	return link.Query()
}

type fixture struct {
	db       *gorm.DB
	clock    *testClock
	outbox   *outbox
	issuer   *auth.CredentialIssuer
	activity *ActivityService
	accounts *AccountService
	orgs     *OrganizationService
	teams    *TeamService
	members  *MemberService
	invites  *InviteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	box := &outbox{}

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "teamhub", Clock: clock.Now})
	require.NoError(t, err)
	issuer, err := auth.NewCredentialIssuer(db, jwtSvc, auth.IssuerConfig{Clock: clock.Now})
	require.NoError(t, err)

	activity, err := NewActivityService(db)
	require.NoError(t, err)
	accounts, err := NewAccountService(db, issuer)
	require.NoError(t, err)
	orgs, err := NewOrganizationService(db, activity)
	require.NoError(t, err)
	teams, err := NewTeamService(db, activity)
	require.NoError(t, err)
	members, err := NewMemberService(db, activity)
	require.NoError(t, err)
	invites, err := NewInviteService(db, issuer,
		mail.NewInviteSender(box, "https://app.example.com", "noreply@example.com"),
		activity,
		WithInviteClock(clock.Now),
	)
	require.NoError(t, err)

	return &fixture{
		db:       db,
		clock:    clock,
		outbox:   box,
		issuer:   issuer,
		activity: activity,
		accounts: accounts,
		orgs:     orgs,
		teams:    teams,
		members:  members,
		invites:  invites,
	}
}

// ownerWithOrg registers an owner, creates an organization and returns the
// owner acting inside it.
func (f *fixture) ownerWithOrg(t *testing.T, email, orgName string) (Actor, *models.Organization) {
	t.Helper()
	ctx := context.Background()

	account, err := f.accounts.Register(ctx, RegisterInput{
		Email:     email,
		Password:  "Own3r!pass",
		FirstName: "Olive",
		LastName:  "Owner",
		Role:      "owner",
	})
	require.NoError(t, err)

	actor := Actor{ProfileID: account.ProfileID, FullName: account.FullName, Role: models.RoleOwner}
	org, err := f.orgs.Create(ctx, actor, CreateOrganizationInput{Name: orgName})
	require.NoError(t, err)

	actor.OrganizationID = org.ID
	return actor, org
}

// addMember registers an identity directly inside org with role.
func (f *fixture) addMember(t *testing.T, org *models.Organization, email, first string, role models.Role) (Actor, models.OrganizationMember) {
	t.Helper()

	account, err := f.accounts.Register(context.Background(), RegisterInput{
		Email:          email,
		Password:       "Memb3r!pass",
		FirstName:      first,
		LastName:       "Test",
		Role:           string(role),
		OrganizationID: org.ID,
	})
	require.NoError(t, err)

	var membership models.OrganizationMember
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", org.ID, account.ProfileID).Take(&membership).Error)

	return Actor{ProfileID: account.ProfileID, FullName: account.FullName, Role: role, OrganizationID: org.ID}, membership
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
