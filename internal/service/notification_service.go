package service

import (
	"context"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/logger"

	"github.com/google/uuid"
)

// Pusher delivers a realtime payload to a connected user. Implementations
// must never block the caller.
type Pusher interface {
	Push(userID string, payload any)
}

// NotificationService creates and fans out notifications. The relational
// row is authoritative; the real-time store entry, websocket push and
// email are best-effort side channels that never fail the operation.
type NotificationService struct {
	repo  repository.NotificationRepository
	users repository.UserRepository
	store rtdb.Client
	push  Pusher
	mail  EmailSender
	log   *logger.Logger
}

// NewNotificationService creates the notification dispatcher
func NewNotificationService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	store rtdb.Client,
	push Pusher,
	mail EmailSender,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		repo:  repo,
		users: users,
		store: store,
		push:  push,
		mail:  mail,
		log:   log,
	}
}

// Notify persists the notification and fans it out. recipientExternalUID
// addresses the real-time store entry; pass empty to skip that channel.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification, recipientExternalUID string) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.log.LogError(err, "notification insert failed", "user_id", n.UserID, "type", n.Type)
		return
	}

	if recipientExternalUID != "" {
		entry := map[string]any{
			"type":      n.Type,
			"title":     n.Title,
			"body":      n.Body,
			"isRead":    false,
			"createdAt": n.CreatedAt.UnixMilli(),
		}
		if n.CaseID != nil {
			entry["caseId"] = *n.CaseID
		}
		if err := s.store.Set(ctx, rtdb.NotificationPath(recipientExternalUID, n.ID), entry); err != nil {
			s.log.Warn("notification fan-out failed", "user_id", n.UserID, "error", err.Error())
		}
	}

	if s.push != nil {
		s.push.Push(n.UserID, n)
	}

	s.maybeEmail(ctx, n)
}

// maybeEmail sends an email for notification types users expect in their
// inbox. Chat messages stay in-app only.
func (s *NotificationService) maybeEmail(ctx context.Context, n *models.Notification) {
	if s.mail == nil {
		return
	}
	switch n.Type {
	case models.NotificationCaseStatus, models.NotificationCaseAssigned, models.NotificationWelcome, models.NotificationAppointment:
	default:
		return
	}

	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		s.log.Warn("notification mail skipped", "user_id", n.UserID, "error", err.Error())
		return
	}
	if err := s.mail.Send(user.Email, n.Title, n.Body); err != nil {
		s.log.Warn("notification mail failed", "user_id", n.UserID, "error", err.Error())
	}
}

// List returns a user's notifications with pagination
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead flags one notification read. It returns false when the
// notification does not exist, belongs to someone else or was already read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	return s.repo.MarkRead(ctx, userID, id, time.Now().UTC())
}

// MarkAllRead flags all of a user's unread notifications
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
}
