package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
)

type DatasetStore interface {
	Create(ctx context.Context, ds *model.Dataset) error
	GetByID(ctx context.Context, id string) (*model.Dataset, error)
	// ListOwned returns the subset of the given datasets owned by the
	// user. The import operation compares the result against its input
	// to enforce ownership.
	ListOwned(ctx context.Context, ownerID uint, ids []string) ([]model.Dataset, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Dataset, error)
}

type datasetStore struct {
	db *gorm.DB
}

func (s *datasetStore) Create(ctx context.Context, ds *model.Dataset) error {
	return s.db.WithContext(ctx).Create(ds).Error
}

func (s *datasetStore) GetByID(ctx context.Context, id string) (*model.Dataset, error) {
	var ds model.Dataset
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ds).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

func (s *datasetStore) ListOwned(ctx context.Context, ownerID uint, ids []string) ([]model.Dataset, error) {
	var dss []model.Dataset
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Find(&dss).Error
	return dss, err
}

func (s *datasetStore) ListByOwner(ctx context.Context, ownerID uint) ([]model.Dataset, error) {
	var dss []model.Dataset
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Find(&dss).Error
	return dss, err
}
