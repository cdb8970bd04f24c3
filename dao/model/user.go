package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the basic entity of the system
type User struct {
	gorm.Model
	Name string `gorm:"type:varchar(64);not null"`
	// Email is set once the address has been verified. Until then the
	// address lives in NotVerifiedEmail, which is how invitation
	// placeholders (no credentials yet) are represented.
	Email            *string `gorm:"uniqueIndex;type:varchar(254)"`
	NotVerifiedEmail *string `gorm:"index;type:varchar(254)"`
	PasswordHash     *string `gorm:"type:varchar(128)"`

	VerificationToken        *string `gorm:"type:varchar(64)"`
	VerificationTokenExpires *time.Time

	Role       Role                              `gorm:"not null;default:2"`
	Status     Status                            `gorm:"not null;default:2"`
	Attributes datatypes.JSONType[UserAttribute] `gorm:"comment:extra profile fields"`

	UserProjects []UserProject
	Datasets     []Dataset `gorm:"foreignKey:OwnerID"`
}

type UserAttribute struct {
	Nickname    string `json:"nickname,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}

// EmailAddress returns the address mail should be sent to, verified or not.
func (u *User) EmailAddress() string {
	if u.Email != nil {
		return *u.Email
	}
	if u.NotVerifiedEmail != nil {
		return *u.NotVerifiedEmail
	}
	return ""
}

// IsPlaceholder reports whether the user was created by an invitation
// and has not registered yet.
func (u *User) IsPlaceholder() bool {
	return u.PasswordHash == nil && u.Email == nil
}
