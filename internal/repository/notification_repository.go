package repository

import (
	"context"
	"time"

	"immigration-case-portal/backend/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository is the persistence interface for notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id string, readAt time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int64, error)
	// MarkReadByCase flags a user's unread notifications about a case,
	// used as a side step when chat messages get marked read.
	MarkReadByCase(ctx context.Context, userID, caseID string, readAt time.Time) (int64, error)
}

// GormNotificationRepository implements NotificationRepository with GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	return notifications, total, err
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, userID, id string, readAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt})
	return res.RowsAffected > 0, res.Error
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt})
	return res.RowsAffected, res.Error
}

func (r *GormNotificationRepository) MarkReadByCase(ctx context.Context, userID, caseID string, readAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND case_id = ? AND is_read = ?", userID, caseID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt})
	return res.RowsAffected, res.Error
}
