package repository

import (
	"context"
	"time"

	"immigration-case-portal/backend/internal/models"

	"gorm.io/gorm"
)

// ChatMessageRepository is the persistence interface for the relational
// mirror of chat messages
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	// MarkRead flags the given message rows as read, but only rows that
	// belong to the recipient and are still unread. It returns the rows
	// actually updated so callers can mirror the flags elsewhere. The
	// select and update run in one transaction.
	MarkRead(ctx context.Context, recipientUID string, ids []string, readAt time.Time) ([]models.ChatMessage, error)
	// MarkReadByExternalIDs is the reverse-sync entry: it flags unread
	// mirror rows whose external id is in extIDs and whose recipient is
	// recipientUID, returning the external ids actually updated.
	MarkReadByExternalIDs(ctx context.Context, recipientUID string, extIDs []string, readAt time.Time) ([]string, error)
	History(ctx context.Context, userUID string, q models.ChatHistoryQuery) ([]models.ChatMessage, int64, error)
	UnreadCount(ctx context.Context, recipientUID string) (int64, error)
}

// GormChatMessageRepository implements ChatMessageRepository with GORM
type GormChatMessageRepository struct {
	db *gorm.DB
}

func NewGormChatMessageRepository(db *gorm.DB) *GormChatMessageRepository {
	return &GormChatMessageRepository{db: db}
}

func (r *GormChatMessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *GormChatMessageRepository) MarkRead(ctx context.Context, recipientUID string, ids []string, readAt time.Time) ([]models.ChatMessage, error) {
	var updated []models.ChatMessage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id IN ? AND recipient_id = ? AND is_read = ?", ids, recipientUID, false).
			Find(&updated).Error; err != nil {
			return err
		}
		if len(updated) == 0 {
			return nil
		}

		matched := make([]string, len(updated))
		for i, m := range updated {
			matched[i] = m.ID
		}
		return tx.Model(&models.ChatMessage{}).
			Where("id IN ?", matched).
			Updates(map[string]any{"is_read": true, "read_at": readAt}).Error
	})
	if err != nil {
		return nil, err
	}

	for i := range updated {
		updated[i].IsRead = true
		t := readAt
		updated[i].ReadAt = &t
	}
	return updated, nil
}

func (r *GormChatMessageRepository) MarkReadByExternalIDs(ctx context.Context, recipientUID string, extIDs []string, readAt time.Time) ([]string, error) {
	if len(extIDs) == 0 {
		return nil, nil
	}

	var synced []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.ChatMessage
		if err := tx.
			Select("id", "external_id").
			Where("external_id IN ? AND recipient_id = ? AND is_read = ?", extIDs, recipientUID, false).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
			synced = append(synced, row.ExternalID)
		}
		return tx.Model(&models.ChatMessage{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"is_read": true, "read_at": readAt}).Error
	})
	if err != nil {
		return nil, err
	}
	return synced, nil
}

func (r *GormChatMessageRepository) History(ctx context.Context, userUID string, q models.ChatHistoryQuery) ([]models.ChatMessage, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("sender_id = ? OR recipient_id = ?", userUID, userUID)

	if q.CaseID != "" {
		query = query.Where("case_id = ?", q.CaseID)
	}
	if q.ChatRoomID != "" {
		query = query.Where("chat_room_id = ?", q.ChatRoomID)
	}
	if q.Search != "" {
		query = query.Where("content ILIKE ?", "%"+q.Search+"%")
	}
	if q.UnreadOnly {
		query = query.Where("recipient_id = ? AND is_read = ?", userUID, false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var messages []models.ChatMessage
	err := query.Order("sent_at DESC").Limit(limit).Offset(q.Offset).Find(&messages).Error
	return messages, total, err
}

func (r *GormChatMessageRepository) UnreadCount(ctx context.Context, recipientUID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("recipient_id = ? AND is_read = ?", recipientUID, false).
		Count(&count).Error
	return count, err
}
