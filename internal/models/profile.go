package models

// Profile is the public face of an identity. It shares its primary key with
// the Identity row created by the credential issuer.
type Profile struct {
	BaseModel

	FullName string `gorm:"size:255;not null" json:"full_name"`
	Email    string `gorm:"size:320;not null;uniqueIndex" json:"email"`
}
