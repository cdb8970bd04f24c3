package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
)

type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	// GetByEmail matches both verified and not-yet-verified addresses.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// FindOrCreateUnverified is the identity bridge used by invitations:
	// it returns the existing user for the address, or creates a
	// placeholder with no credentials so a membership row can exist
	// before the invitee registers.
	FindOrCreateUnverified(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
}

type userStore struct {
	db *gorm.DB
}

func (s *userStore) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR not_verified_email = ?", email, email).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) FindOrCreateUnverified(ctx context.Context, email string) (*model.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name, _, _ := strings.Cut(email, "@")
	placeholder := model.User{
		Name:             name,
		NotVerifiedEmail: &email,
		Role:             model.RoleUser,
		Status:           model.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&placeholder).Error; err != nil {
		return nil, err
	}
	return &placeholder, nil
}

func (s *userStore) Create(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *userStore) Update(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}
