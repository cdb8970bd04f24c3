package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/annolab/metahub/dao/model"
)

// DatasetProjectStore owns the dataset_project relation. ApproveAll
// and PurgeAll are single set-based statements so a concurrent import
// cannot slip a row between a read and a write.
type DatasetProjectStore interface {
	Upsert(ctx context.Context, dp *model.DatasetProject) error
	// ApproveAllForUser flips approved to true for every association of
	// a dataset owned by the user inside the project.
	ApproveAllForUser(ctx context.Context, userID, projectID uint) error
	// PurgeAllForUser deletes every association of a dataset owned by
	// the user inside the project.
	PurgeAllForUser(ctx context.Context, userID, projectID uint) error
	ListByProject(ctx context.Context, projectID uint) ([]model.DatasetProject, error)
	ListByDatasets(ctx context.Context, datasetIDs []string) ([]model.DatasetProject, error)
}

type datasetProjectStore struct {
	db *gorm.DB
}

func (s *datasetProjectStore) Upsert(ctx context.Context, dp *model.DatasetProject) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dataset_id"}, {Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"approved", "updated_at"}),
		}).
		Create(dp).Error
}

func (s *datasetProjectStore) ApproveAllForUser(ctx context.Context, userID, projectID uint) error {
	db := s.db.WithContext(ctx)
	owned := db.Model(&model.Dataset{}).Select("id").Where("owner_id = ?", userID)
	return db.Model(&model.DatasetProject{}).
		Where("project_id = ? AND dataset_id IN (?)", projectID, owned).
		Update("approved", true).Error
}

func (s *datasetProjectStore) PurgeAllForUser(ctx context.Context, userID, projectID uint) error {
	db := s.db.WithContext(ctx)
	owned := db.Model(&model.Dataset{}).Select("id").Where("owner_id = ?", userID)
	return db.
		Where("project_id = ? AND dataset_id IN (?)", projectID, owned).
		Delete(&model.DatasetProject{}).Error
}

func (s *datasetProjectStore) ListByProject(ctx context.Context, projectID uint) ([]model.DatasetProject, error) {
	var dps []model.DatasetProject
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&dps).Error
	return dps, err
}

func (s *datasetProjectStore) ListByDatasets(ctx context.Context, datasetIDs []string) ([]model.DatasetProject, error) {
	var dps []model.DatasetProject
	err := s.db.WithContext(ctx).
		Where("dataset_id IN ?", datasetIDs).
		Find(&dps).Error
	return dps, err
}
