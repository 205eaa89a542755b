package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/models"
)

func TestOrganizationCreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, org := f.ownerWithOrg(t, "olive@example.com", "Acme Inc")
	require.Equal(t, "acme-inc", org.Slug)
	require.Equal(t, owner.ProfileID, org.OwnerID)

	var membership models.OrganizationMember
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", org.ID, owner.ProfileID).Take(&membership).Error)
	require.Equal(t, models.RoleOwner, membership.Role)

	orgs, err := f.orgs.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	require.Equal(t, org.ID, orgs[0].ID)

	require.EqualValues(t, 1, f.count(t, &models.ActivityLog{}, "organization_id = ? AND action_type = ?", org.ID, models.ActivityOrganizationCreated))
}

func TestOrganizationSlugConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, _ := f.ownerWithOrg(t, "olive@example.com", "Acme Inc")

	_, err := f.orgs.Create(ctx, owner, CreateOrganizationInput{Name: "acme   inc!"})
	requireAppError(t, err, http.StatusConflict, "Organization with this name already exists")
	require.EqualValues(t, 1, f.count(t, &models.Organization{}, "slug = ?", "acme-inc"))
}

func TestOrganizationCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, org := f.ownerWithOrg(t, "olive@example.com", "Acme Inc")
	admin, _ := f.addMember(t, org, "adam@example.com", "Adam", models.RoleAdmin)

	_, err := f.orgs.Create(ctx, admin, CreateOrganizationInput{Name: "Other"})
	requireAppError(t, err, http.StatusForbidden, "Only owners can create organizations")

	_, err = f.orgs.Create(ctx, owner, CreateOrganizationInput{Name: "   "})
	requireAppError(t, err, http.StatusBadRequest, "Organization name is required")
}

func TestOrganizationOwnerMembershipFailureRemovesOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.accounts.Register(ctx, RegisterInput{
		Email: "olive@example.com", Password: "Own3r!pass", FirstName: "Olive", LastName: "Owner", Role: "owner",
	})
	require.NoError(t, err)

	failCreate(t, f.db, "organization_members")

	actor := Actor{ProfileID: account.ProfileID, Role: models.RoleOwner}
	_, err = f.orgs.Create(ctx, actor, CreateOrganizationInput{Name: "Acme Inc"})
	requireAppError(t, err, http.StatusInternalServerError, "Failed to add owner to organization")
	require.Zero(t, f.count(t, &models.Organization{}, "slug = ?", "acme-inc"))
}

// failCreate makes every insert into table fail for the rest of the test.
func failCreate(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	name := "test:fail_" + table
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("injected failure on " + table))
		}
	})
	require.NoError(t, err)
}
