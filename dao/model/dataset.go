package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Dataset struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	OwnerID   uint   `gorm:"index;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Dataset) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// DatasetProject marks a dataset as imported into a project's
// namespace. Approved is derived state: true iff the dataset owner's
// membership role in the project grants dataset access at the time of
// the last transition touching that membership.
type DatasetProject struct {
	DatasetID string    `gorm:"primaryKey;type:uuid" json:"datasetId"`
	ProjectID uint      `gorm:"primaryKey" json:"projectId"`
	Approved  bool      `gorm:"not null;default:false" json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
