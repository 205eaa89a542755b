package models

// Team groups members inside an organization. Names are unique per organization.
type Team struct {
	BaseModel

	OrganizationID string `gorm:"size:36;not null;uniqueIndex:idx_team_org_name,priority:1" json:"organization_id"`
	Name           string `gorm:"size:255;not null;uniqueIndex:idx_team_org_name,priority:2" json:"name"`
	Slug           string `gorm:"size:255;not null;index" json:"slug"`
	Description    string `gorm:"size:1024" json:"description,omitempty"`
	CreatedBy      string `gorm:"size:36;not null" json:"created_by"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TeamMember is a membership of an identity in a team.
type TeamMember struct {
	BaseModel

	TeamID  string `gorm:"size:36;not null;uniqueIndex:idx_team_member_user,priority:1" json:"team_id"`
	UserID  string `gorm:"size:36;not null;uniqueIndex:idx_team_member_user,priority:2;index" json:"user_id"`
	Role    string `gorm:"size:32;not null;default:member" json:"role"`
	AddedBy string `gorm:"size:36" json:"added_by"`

	Team    *Team    `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"-"`
	Profile *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}
