package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/internal/permissions"
	apperrors "github.com/charlesng35/teamhub/pkg/errors"
)

// ErrMemberNotFound indicates the membership is absent from the actor's organization.
var ErrMemberNotFound = apperrors.NewNotFound("Member not found")

// RoleChange describes the outcome of UpdateRole.
type RoleChange struct {
	Member  *models.OrganizationMember
	OldRole models.Role
	Changed bool
}

// MemberService lists organization members and changes their roles.
type MemberService struct {
	db       *gorm.DB
	activity *ActivityService
}

// NewMemberService constructs a MemberService instance.
func NewMemberService(db *gorm.DB, activity *ActivityService) (*MemberService, error) {
	if db == nil {
		return nil, errors.New("member service: db is required")
	}
	return &MemberService{db: db, activity: activity}, nil
}

// List returns the members of the resolved organization newest first.
func (s *MemberService) List(ctx context.Context, actor Actor, organizationID string) ([]models.OrganizationMember, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, organizationID)
	if err != nil {
		return nil, err
	}

	var members []models.OrganizationMember
	if err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("organization_id = ?", actor.OrganizationID).
		Order("created_at DESC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("member service: list: %w", err)
	}
	return members, nil
}

// UpdateRole changes the role of a membership in the actor's organization.
// Requesting the current role is a successful no-op with nothing written.
func (s *MemberService) UpdateRole(ctx context.Context, actor Actor, memberID, rawRole string) (*RoleChange, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, "")
	if err != nil {
		return nil, err
	}

	newRole, ok := models.ParseRole(rawRole)
	if !ok {
		return nil, apperrors.NewBadRequest("Invalid role. Must be owner, admin, or member")
	}

	var member models.OrganizationMember
	err = s.db.WithContext(ctx).
		Preload("Profile").
		Where("id = ? AND organization_id = ?", strings.TrimSpace(memberID), actor.OrganizationID).
		Take(&member).Error
	if database.IsNotFound(err) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("member service: load member: %w", err)
	}

	oldRole := member.Role
	if err := authorize(permissions.Request{
		Actor:      actor.Role,
		Action:     permissions.ActionChangeRole,
		TargetRole: oldRole,
		NewRole:    newRole,
		Self:       member.UserID == actor.ProfileID,
	}); err != nil {
		return nil, err
	}

	// ownership is granted at organization creation only
	if newRole == models.RoleOwner && oldRole != models.RoleOwner {
		return nil, apperrors.NewBadRequest("Invalid role. Must be admin or member")
	}

	if newRole == oldRole {
		return &RoleChange{Member: &member, OldRole: oldRole}, nil
	}

	res := s.db.WithContext(ctx).Model(&models.OrganizationMember{}).
		Where("id = ? AND organization_id = ? AND role = ?", member.ID, actor.OrganizationID, oldRole).
		Update("role", newRole)
	if res.Error != nil {
		return nil, apperrors.NewDependency("Failed to update role", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NewStateConflict("Role was changed concurrently, please retry")
	}
	member.Role = newRole

	name := "Unknown"
	if member.Profile != nil && member.Profile.FullName != "" {
		name = member.Profile.FullName
	}
	recordActivity(s.activity, ctx, ActivityEntry{
		OrganizationID: actor.OrganizationID,
		ActorID:        actor.ProfileID,
		Action:         fmt.Sprintf("Changed %s role from %s to %s", name, oldRole, newRole),
		ActionType:     models.ActivityRoleChanged,
		Metadata:       map[string]any{"name": name, "role": string(newRole)},
	})

	return &RoleChange{Member: &member, OldRole: oldRole, Changed: true}, nil
}
