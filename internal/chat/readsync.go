package chat

import (
	"context"
	"errors"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/logger"
)

// MaxMarkReadBatch bounds a single mark-read request
const MaxMarkReadBatch = 100

// ErrInvalidMessageBatch rejects empty or oversized id lists before any
// store access happens
var ErrInvalidMessageBatch = errors.New("messageIds must contain between 1 and 100 entries")

// Caller identifies the authenticated user on both sides of the system:
// UserID is the relational key, ExternalUID the real-time store identity.
type Caller struct {
	UserID      string
	ExternalUID string
}

// MarkReadResult reports which mirror rows a mark-read call flipped
type MarkReadResult struct {
	Count      int       `json:"count"`
	MessageIDs []string  `json:"messageIds"`
	ReadAt     time.Time `json:"readAt"`
}

// SyncResult reports a reverse sync from the real-time store
type SyncResult struct {
	Count       int      `json:"count"`
	ExternalIDs []string `json:"externalIds"`
	ChatRoomID  string   `json:"chatRoomId"`
}

// ReadSyncer keeps read flags consistent between the relational mirror
// and the real-time store. The mirror is authoritative for mark-read
// requests; the store mirror write is best effort and never fails the
// request.
type ReadSyncer struct {
	messages      repository.ChatMessageRepository
	notifications repository.NotificationRepository
	locator       *RoomLocator
	store         rtdb.Client
	log           *logger.Logger
}

// NewReadSyncer creates a read-status bridge
func NewReadSyncer(messages repository.ChatMessageRepository, notifications repository.NotificationRepository, locator *RoomLocator, store rtdb.Client, log *logger.Logger) *ReadSyncer {
	return &ReadSyncer{
		messages:      messages,
		notifications: notifications,
		locator:       locator,
		store:         store,
		log:           log,
	}
}

// MarkRead flags the given mirror rows as read for the caller. Only rows
// whose recipient is the caller and that are still unread count; ids that
// belong to someone else or were already read are silently skipped, so a
// repeated call reports zero. The relational update commits first, then
// the read flags are mirrored into the real-time store and related
// notifications are cleared.
func (s *ReadSyncer) MarkRead(ctx context.Context, caller Caller, messageIDs []string, chatRoomID string) (*MarkReadResult, error) {
	if len(messageIDs) == 0 || len(messageIDs) > MaxMarkReadBatch {
		return nil, ErrInvalidMessageBatch
	}

	readAt := time.Now().UTC()
	updated, err := s.messages.MarkRead(ctx, caller.ExternalUID, messageIDs, readAt)
	if err != nil {
		return nil, err
	}

	result := &MarkReadResult{
		Count:      len(updated),
		MessageIDs: make([]string, 0, len(updated)),
		ReadAt:     readAt,
	}
	for _, msg := range updated {
		result.MessageIDs = append(result.MessageIDs, msg.ID)
	}

	s.mirrorReadFlags(ctx, updated, chatRoomID, readAt)
	s.clearMessageNotifications(ctx, caller, updated, readAt)

	return result, nil
}

// mirrorReadFlags pushes read flags into the real-time store. Failures
// are logged and swallowed: the next reverse sync or client read heals
// the divergence.
func (s *ReadSyncer) mirrorReadFlags(ctx context.Context, updated []models.ChatMessage, chatRoomID string, readAt time.Time) {
	for _, msg := range updated {
		room := msg.ChatRoomID
		if chatRoomID != "" {
			room = chatRoomID
		}
		if room == "" || msg.ExternalID == "" {
			continue
		}
		err := s.store.Update(ctx, rtdb.MessagePath(room, msg.ExternalID), map[string]any{
			"isRead": true,
			"readAt": readAt.UnixMilli(),
		})
		if err != nil {
			s.log.Warn("read flag mirror failed",
				"room", room,
				"message", msg.ExternalID,
				"error", err.Error(),
			)
		}
	}
}

// clearMessageNotifications marks the caller's new-message notifications
// read for every case the updated messages belong to
func (s *ReadSyncer) clearMessageNotifications(ctx context.Context, caller Caller, updated []models.ChatMessage, readAt time.Time) {
	if caller.UserID == "" {
		return
	}
	seen := make(map[string]struct{})
	for _, msg := range updated {
		if msg.CaseID == nil || *msg.CaseID == "" {
			continue
		}
		if _, done := seen[*msg.CaseID]; done {
			continue
		}
		seen[*msg.CaseID] = struct{}{}
		if _, err := s.notifications.MarkReadByCase(ctx, caller.UserID, *msg.CaseID, readAt); err != nil {
			s.log.Warn("notification clear failed", "case_id", *msg.CaseID, "error", err.Error())
		}
	}
}

// SyncFromExternal pulls read flags out of the real-time store into the
// mirror: messages the caller already read in the chat client get their
// mirror rows flagged too. Rows already in sync are skipped. filterIDs,
// when non-empty, restricts the sync to those external message ids.
func (s *ReadSyncer) SyncFromExternal(ctx context.Context, caller Caller, caseID string, filterIDs []string) (*SyncResult, error) {
	room, err := s.locator.LocateByCaseID(ctx, caseID)
	if err != nil {
		// Fall back to the legacy room so unmigrated cases still sync
		if errors.Is(err, ErrNoAgentAssigned) || errors.Is(err, ErrNoExternalIdentity) {
			room = LegacyRoomID(caseID)
		} else {
			return nil, err
		}
	}

	snap, err := s.store.Get(ctx, rtdb.MessagesPath(room))
	if err != nil {
		return nil, err
	}
	records, err := rtdb.DecodeMessages(snap)
	if err != nil {
		return nil, err
	}

	var filter map[string]struct{}
	if len(filterIDs) > 0 {
		filter = make(map[string]struct{}, len(filterIDs))
		for _, id := range filterIDs {
			filter[id] = struct{}{}
		}
	}

	var candidates []string
	for id, rec := range records {
		if !rec.IsRead || rec.RecipientID != caller.ExternalUID {
			continue
		}
		if filter != nil {
			if _, ok := filter[id]; !ok {
				continue
			}
		}
		candidates = append(candidates, id)
	}

	result := &SyncResult{ChatRoomID: room, ExternalIDs: []string{}}
	if len(candidates) == 0 {
		return result, nil
	}

	readAt := time.Now().UTC()
	synced, err := s.messages.MarkReadByExternalIDs(ctx, caller.ExternalUID, candidates, readAt)
	if err != nil {
		return nil, err
	}
	result.Count = len(synced)
	result.ExternalIDs = synced

	if result.Count > 0 && caller.UserID != "" {
		if _, err := s.notifications.MarkReadByCase(ctx, caller.UserID, caseID, readAt); err != nil {
			s.log.Warn("notification clear failed", "case_id", caseID, "error", err.Error())
		}
	}

	return result, nil
}
