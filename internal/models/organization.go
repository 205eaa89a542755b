package models

// Organization is the tenant boundary. Slug is derived from Name and is
// globally unique.
type Organization struct {
	BaseModel

	Name    string `gorm:"size:255;not null" json:"name"`
	Slug    string `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	OwnerID string `gorm:"size:36;not null;index" json:"owner_id"`
}

// OrganizationMember binds an identity to an organization with a single role.
type OrganizationMember struct {
	BaseModel

	OrganizationID string `gorm:"size:36;not null;uniqueIndex:idx_org_member_user,priority:1" json:"organization_id"`
	UserID         string `gorm:"size:36;not null;uniqueIndex:idx_org_member_user,priority:2;index" json:"user_id"`
	Role           Role   `gorm:"size:16;not null" json:"role"`

	Profile      *Profile      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`
}
