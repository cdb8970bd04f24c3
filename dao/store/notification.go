package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
)

// NotificationStore is the mail outbox. Enqueue is called with a
// transaction-bound store so the intent commits with the transition;
// the delivery worker owns the other methods.
type NotificationStore interface {
	Enqueue(ctx context.Context, n *model.Notification) error
	ListPending(ctx context.Context, maxAttempts, limit int) ([]model.Notification, error)
	MarkSent(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, deliveryErr string) error
}

type notificationStore struct {
	db *gorm.DB
}

func (s *notificationStore) Enqueue(ctx context.Context, n *model.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *notificationStore) ListPending(ctx context.Context, maxAttempts, limit int) ([]model.Notification, error) {
	var ns []model.Notification
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL AND attempts < ?", maxAttempts).
		Order("id").
		Limit(limit).
		Find(&ns).Error
	return ns, err
}

func (s *notificationStore) MarkSent(ctx context.Context, id uint) error {
	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"sent_at": &now}).Error
}

func (s *notificationStore) MarkFailed(ctx context.Context, id uint, deliveryErr string) error {
	return s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": deliveryErr,
		}).Error
}
