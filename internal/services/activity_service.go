package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/models"
	"github.com/charlesng35/teamhub/pkg/logger"
)

// ActivityEntry captures a single activity event to persist.
type ActivityEntry struct {
	OrganizationID string
	ActorID        string
	Action         string
	ActionType     string
	Metadata       map[string]any
}

// ActivityService persists and retrieves the organization activity feed.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService constructs an ActivityService using the provided database handle.
func NewActivityService(db *gorm.DB) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	return &ActivityService{db: db}, nil
}

// Log stores an activity entry.
func (s *ActivityService) Log(ctx context.Context, entry ActivityEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.OrganizationID) == "" {
		return errors.New("activity service: organization is required")
	}
	if strings.TrimSpace(entry.ActionType) == "" {
		return errors.New("activity service: action type is required")
	}

	row := models.ActivityLog{
		OrganizationID: entry.OrganizationID,
		ActorID:        entry.ActorID,
		Action:         strings.TrimSpace(entry.Action),
		ActionType:     entry.ActionType,
	}
	if entry.Metadata != nil {
		row.Metadata = datatypes.JSONMap(entry.Metadata)
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("activity service: create entry: %w", err)
	}
	return nil
}

// List returns the organization's activity newest first with the actor loaded.
func (s *ActivityService) List(ctx context.Context, actor Actor, organizationID string) ([]models.ActivityLog, error) {
	ctx = ensureContext(ctx)

	actor, err := scopeActor(ctx, s.db, actor, organizationID)
	if err != nil {
		return nil, err
	}

	var entries []models.ActivityLog
	err = s.db.WithContext(ctx).
		Preload("Actor").
		Where("organization_id = ?", actor.OrganizationID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("activity service: list: %w", err)
	}
	return entries, nil
}

// recordActivity logs the supplied entry while tolerating failures. Activity
// never fails the mutation it describes.
func recordActivity(activity *ActivityService, ctx context.Context, entry ActivityEntry) {
	if activity == nil {
		return
	}
	if err := activity.Log(ctx, entry); err != nil {
		logger.WithModule("activity").Warn("failed to record activity",
			zap.String("type", entry.ActionType),
			zap.String("organization_id", entry.OrganizationID),
			zap.Error(err),
		)
	}
}
