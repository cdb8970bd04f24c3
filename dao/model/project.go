package model

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	gorm.Model
	Name      string  `gorm:"uniqueIndex;type:varchar(128);not null"`
	ShortName string  `gorm:"type:varchar(32);not null"`
	URLSlug   *string `gorm:"uniqueIndex;type:varchar(128)"`

	UserProjects []UserProject
}

// UserProject records the role of a user inside a project. The
// composite primary key guarantees at most one row per (user, project);
// a missing row means no relationship. This row is the single source of
// truth for the user's authorization level in the project, and the
// dataset_project.approved flags derived from it are kept in sync by
// the visibility synchronizer in the same transaction as every role
// change.
type UserProject struct {
	UserID    uint        `gorm:"primaryKey" json:"userId"`
	ProjectID uint        `gorm:"primaryKey" json:"projectId"`
	Role      ProjectRole `gorm:"not null" json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
