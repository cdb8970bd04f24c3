package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
)

type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uint) (*model.Project, error)
	// ListForUser joins user_projects so callers get their role in one
	// query.
	ListForUser(ctx context.Context, userID uint) ([]ProjectWithRole, error)
}

type ProjectWithRole struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	ShortName string            `json:"shortName"`
	Role      model.ProjectRole `json:"role"`
}

type projectStore struct {
	db *gorm.DB
}

func (s *projectStore) Create(ctx context.Context, p *model.Project) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *projectStore) GetByID(ctx context.Context, id uint) (*model.Project, error) {
	var p model.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *projectStore) ListForUser(ctx context.Context, userID uint) ([]ProjectWithRole, error) {
	var projects []ProjectWithRole
	err := s.db.WithContext(ctx).
		Model(&model.Project{}).
		Select("projects.id, projects.name, projects.short_name, user_projects.role").
		Joins("JOIN user_projects ON user_projects.project_id = projects.id").
		Where("user_projects.user_id = ?", userID).
		Order("projects.id DESC").
		Scan(&projects).Error
	return projects, err
}
