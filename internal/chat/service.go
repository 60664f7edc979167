package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/logger"

	"github.com/google/uuid"
)

// ErrNotParticipant rejects messages from users outside the case
var ErrNotParticipant = errors.New("user is not a participant of this case")

// Notifier delivers a notification to a user. Delivery is best effort;
// implementations must not fail the calling operation.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification, recipientExternalUID string)
}

// Service sends messages and serves history. Sends are dual writes: the
// real-time store gets the message first because it is the delivery
// channel, then the relational mirror row follows.
type Service struct {
	messages repository.ChatMessageRepository
	cases    repository.CaseRepository
	users    repository.UserRepository
	locator  *RoomLocator
	store    rtdb.Client
	notifier Notifier
	log      *logger.Logger
}

// NewService creates the chat service
func NewService(
	messages repository.ChatMessageRepository,
	cases repository.CaseRepository,
	users repository.UserRepository,
	locator *RoomLocator,
	store rtdb.Client,
	notifier Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		messages: messages,
		cases:    cases,
		users:    users,
		locator:  locator,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// SendMessage posts a message into the case's canonical room and mirrors
// it relationally. The caller must be the case's client or its assigned
// agent; the other participant is the recipient.
func (s *Service) SendMessage(ctx context.Context, caller Caller, req models.SendMessageRequest) (*models.ChatMessage, error) {
	kase, err := s.cases.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	recipientID, err := s.counterpart(kase, caller.UserID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if recipient.ExternalUID == "" {
		return nil, ErrNoExternalIdentity
	}

	room, err := s.locator.Locate(ctx, kase)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	externalID := uuid.New().String()
	record := rtdb.MessageRecord{
		SenderID:    caller.ExternalUID,
		RecipientID: recipient.ExternalUID,
		Content:     req.Content,
		SentAt:      now.UnixMilli(),
		IsRead:      false,
	}

	if err := s.store.Set(ctx, rtdb.MessagePath(room, externalID), record); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	if err := s.store.Update(ctx, rtdb.MetadataPath(room), map[string]any{
		"lastMessage":   truncatePreview(req.Content),
		"lastMessageAt": now.UnixMilli(),
	}); err != nil {
		s.log.Warn("metadata update failed", "room", room, "error", err.Error())
	}

	caseID := kase.ID
	msg := &models.ChatMessage{
		ID:          uuid.New().String(),
		ExternalID:  externalID,
		ChatRoomID:  room,
		CaseID:      &caseID,
		SenderID:    caller.ExternalUID,
		RecipientID: recipient.ExternalUID,
		Content:     req.Content,
		SentAt:      now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		// The store write already happened; the mirror heals on the next
		// reverse sync, so report but do not undo delivery.
		s.log.LogError(err, "message mirror insert failed", "external_id", externalID)
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, &models.Notification{
			ID:     uuid.New().String(),
			UserID: recipient.ID,
			Type:   models.NotificationNewMessage,
			Title:  "New message",
			Body:   truncatePreview(req.Content),
			CaseID: &caseID,
		}, recipient.ExternalUID)
	}

	return msg, nil
}

// counterpart returns the other participant of the case, or an error if
// the caller is not on the case at all
func (s *Service) counterpart(kase *models.Case, callerUserID string) (string, error) {
	switch {
	case kase.ClientID == callerUserID:
		if kase.AgentID == nil || *kase.AgentID == "" {
			return "", ErrNoAgentAssigned
		}
		return *kase.AgentID, nil
	case kase.AgentID != nil && *kase.AgentID == callerUserID:
		return kase.ClientID, nil
	default:
		return "", ErrNotParticipant
	}
}

// History returns the caller's messages from the relational mirror
func (s *Service) History(ctx context.Context, caller Caller, q models.ChatHistoryQuery) ([]models.ChatMessage, int64, error) {
	return s.messages.History(ctx, caller.ExternalUID, q)
}

// UnreadCount returns how many unread messages the caller has
func (s *Service) UnreadCount(ctx context.Context, caller Caller) (int64, error) {
	return s.messages.UnreadCount(ctx, caller.ExternalUID)
}
