package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/annolab/metahub/dao/model"
)

// MembershipStore owns the user_project relation. It is a pure data
// access layer; all policy lives in the access engine.
type MembershipStore interface {
	Get(ctx context.Context, userID, projectID uint) (*model.UserProject, error)
	// GetForUpdate reads the membership row under a FOR UPDATE lock.
	// Concurrent transitions on the same (user, project) key serialize
	// on this row; the loser sees the post-commit state and fails its
	// precondition check instead of double-applying.
	GetForUpdate(ctx context.Context, userID, projectID uint) (*model.UserProject, error)
	// Create inserts a new membership row. A duplicate key surfaces as
	// gorm.ErrDuplicatedKey, never a silent merge.
	Create(ctx context.Context, up *model.UserProject) error
	UpdateRole(ctx context.Context, userID, projectID uint, role model.ProjectRole) error
	Delete(ctx context.Context, userID, projectID uint) error
	ListByProject(ctx context.Context, projectID uint) ([]model.UserProject, error)
	ListByUser(ctx context.Context, userID uint) ([]model.UserProject, error)
	// ListManagers returns the users holding a manager-or-above role in
	// the project, for request-access notifications.
	ListManagers(ctx context.Context, projectID uint) ([]model.User, error)
}

type membershipStore struct {
	db *gorm.DB
}

func (s *membershipStore) Get(ctx context.Context, userID, projectID uint) (*model.UserProject, error) {
	var up model.UserProject
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&up).Error
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func (s *membershipStore) GetForUpdate(ctx context.Context, userID, projectID uint) (*model.UserProject, error) {
	var up model.UserProject
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&up).Error
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func (s *membershipStore) Create(ctx context.Context, up *model.UserProject) error {
	return s.db.WithContext(ctx).Create(up).Error
}

func (s *membershipStore) UpdateRole(ctx context.Context, userID, projectID uint, role model.ProjectRole) error {
	res := s.db.WithContext(ctx).
		Model(&model.UserProject{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *membershipStore) Delete(ctx context.Context, userID, projectID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&model.UserProject{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *membershipStore) ListByProject(ctx context.Context, projectID uint) ([]model.UserProject, error) {
	var ups []model.UserProject
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at").
		Find(&ups).Error
	return ups, err
}

func (s *membershipStore) ListByUser(ctx context.Context, userID uint) ([]model.UserProject, error) {
	var ups []model.UserProject
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&ups).Error
	return ups, err
}

func (s *membershipStore) ListManagers(ctx context.Context, projectID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Joins("JOIN user_projects ON user_projects.user_id = users.id").
		Where("user_projects.project_id = ? AND user_projects.role >= ?", projectID, model.ProjectRoleManager).
		Find(&users).Error
	return users, err
}
