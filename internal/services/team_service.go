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

var (
	// ErrTeamNotFound indicates the requested team does not exist in the caller's organization.
	ErrTeamNotFound = apperrors.NewNotFound("Team not found")
	// ErrTeamExists signals a duplicate team name inside an organization.
	ErrTeamExists = apperrors.NewConflict("Team with this name already exists in the organization")
)

// CreateTeamInput captures new team metadata.
type CreateTeamInput struct {
	OrganizationID string
	Name           string
	Slug           string
	Description    string
}

// TeamService handles team lifecycle and membership listings.
type TeamService struct {
	db       *gorm.DB
	activity *ActivityService
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(db *gorm.DB, activity *ActivityService) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	return &TeamService{db: db, activity: activity}, nil
}

// Create registers a new team in the resolved organization.
func (s *TeamService) Create(ctx context.Context, actor Actor, input CreateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(permissions.Request{Actor: actor.Role, Action: permissions.ActionCreateTeam}); err != nil {
		return nil, err
	}
	orgID := actor.OrganizationID

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("Team name is required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Team{}).
		Where("organization_id = ? AND name = ?", orgID, name).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("team service: check name: %w", err)
	}
	if existing > 0 {
		return nil, ErrTeamExists
	}

	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	team := &models.Team{
		OrganizationID: orgID,
		Name:           name,
		Slug:           slug,
		Description:    strings.TrimSpace(input.Description),
		CreatedBy:      actor.ProfileID,
	}
	if err := s.db.WithContext(ctx).Create(team).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrTeamExists
		}
		return nil, apperrors.NewDependency("Failed to create team", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		OrganizationID: orgID,
		ActorID:        actor.ProfileID,
		Action:         "Created team " + team.Name,
		ActionType:     models.ActivityTeamCreated,
		Metadata:       map[string]any{"name": team.Name},
	})

	return team, nil
}

// List returns the teams of the resolved organization newest first.
func (s *TeamService) List(ctx context.Context, actor Actor, organizationID string) ([]models.Team, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, organizationID)
	if err != nil {
		return nil, err
	}

	var teams []models.Team
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", actor.OrganizationID).
		Order("created_at DESC").
		Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}
	return teams, nil
}

// ListMembers returns the members of a team that belongs to the actor's organization.
func (s *TeamService) ListMembers(ctx context.Context, actor Actor, teamID string) ([]models.TeamMember, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, "")
	if err != nil {
		return nil, err
	}

	var team models.Team
	err = s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", strings.TrimSpace(teamID), actor.OrganizationID).
		Take(&team).Error
	if database.IsNotFound(err) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team service: load team: %w", err)
	}

	var members []models.TeamMember
	if err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("team_id = ?", team.ID).
		Order("created_at DESC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("team service: list members: %w", err)
	}
	return members, nil
}
