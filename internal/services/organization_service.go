package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/internal/permissions"
	apperrors "github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/logger"
	"github.com/charlesng35/teamhub/pkg/metrics"
	"github.com/charlesng35/teamhub/pkg/saga"
)

// CreateOrganizationInput captures the attributes required to register an organization.
type CreateOrganizationInput struct {
	Name string
}

// OrganizationService manages lifecycle operations for organizations.
type OrganizationService struct {
	db       *gorm.DB
	activity *ActivityService
}

// NewOrganizationService constructs an OrganizationService instance.
func NewOrganizationService(db *gorm.DB, activity *ActivityService) (*OrganizationService, error) {
	if db == nil {
		return nil, errors.New("organization service: db is required")
	}
	return &OrganizationService{db: db, activity: activity}, nil
}

// Create registers a new organization and makes the actor its owner. The
// organization row is removed again when the owner membership cannot be written.
func (s *OrganizationService) Create(ctx context.Context, actor Actor, input CreateOrganizationInput) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	if err := authorize(permissions.Request{Actor: actor.Role, Action: permissions.ActionCreateOrganization}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("Organization name is required")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, apperrors.NewBadRequest("Organization name is required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Organization{}).Where("slug = ?", slug).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("organization service: check slug: %w", err)
	}
	if existing > 0 {
		return nil, apperrors.NewConflict("Organization with this name already exists")
	}

	org := &models.Organization{Name: name, Slug: slug, OwnerID: actor.ProfileID}

	tx := saga.New("organization.create",
		saga.WithLogger(logger.WithModule("organizations")),
		saga.WithCompensationHook(compensationRecorder("organization.create")),
	)

	err := tx.Step(ctx, "organization",
		func(ctx context.Context) error {
			return s.db.WithContext(ctx).Create(org).Error
		},
		func(ctx context.Context) error {
			return s.db.WithContext(ctx).Delete(&models.Organization{}, "id = ?", org.ID).Error
		},
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("Organization with this name already exists")
		}
		return nil, apperrors.NewDependency("Failed to create organization", err)
	}

	err = tx.Step(ctx, "owner_membership", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Create(&models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         actor.ProfileID,
			Role:           models.RoleOwner,
		}).Error
	}, nil)
	if err != nil {
		return nil, apperrors.NewDependency("Failed to add owner to organization", err)
	}
	tx.Commit()

	recordActivity(s.activity, ctx, ActivityEntry{
		OrganizationID: org.ID,
		ActorID:        actor.ProfileID,
		Action:         "Created organization " + org.Name,
		ActionType:     models.ActivityOrganizationCreated,
		Metadata:       map[string]any{"name": org.Name, "slug": org.Slug},
	})

	return org, nil
}

// ListForUser returns the organizations the actor belongs to, oldest membership first.
func (s *OrganizationService) ListForUser(ctx context.Context, actor Actor) ([]models.Organization, error) {
	ctx = ensureContext(ctx)

	var orgs []models.Organization
	err := s.db.WithContext(ctx).
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ?", actor.ProfileID).
		Order("organization_members.created_at ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("organization service: list: %w", err)
	}
	return orgs, nil
}

// compensationRecorder feeds saga compensation outcomes into metrics.
func compensationRecorder(operation string) func(step string, err error) {
	return func(step string, err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.Compensations.WithLabelValues(operation, result).Inc()
		logger.WithModule("saga").Debug("compensation",
			zap.String("operation", operation),
			zap.String("step", step),
			zap.String("result", result),
		)
	}
}
