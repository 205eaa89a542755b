package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity types recorded by the orchestrators.
const (
	ActivityUserInvited         = "user.invited"
	ActivityInviteRevoked       = "invite.revoked"
	ActivityInviteAccepted      = "invite.accepted"
	ActivityRoleChanged         = "role.changed"
	ActivityTeamCreated         = "team.created"
	ActivityOrganizationCreated = "organization.created"
)

// ActivityLog is an append-only record of a state-changing action.
type ActivityLog struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string            `gorm:"size:36;not null;index:idx_activity_org_created,priority:1" json:"organization_id"`
	ActorID        string            `gorm:"size:36;not null;index" json:"actor_id"`
	Action         string            `gorm:"size:512;not null" json:"action"`
	ActionType     string            `gorm:"size:64;not null;index" json:"action_type"`
	Metadata       datatypes.JSONMap `json:"metadata"`
	CreatedAt      time.Time         `gorm:"index:idx_activity_org_created,priority:2" json:"created_at"`

	Actor *Profile `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

// TableName overrides the pluralised default.
func (ActivityLog) TableName() string {
	return "activity_log"
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
