package chat

import (
	"context"
	"fmt"

	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/logger"
)

// lastMessagePreviewLen caps the metadata preview of the latest message
const lastMessagePreviewLen = 100

// Merger copies a legacy per-case room into the canonical participant
// room. Every step is idempotent, so a merge interrupted halfway can be
// re-run without duplicating anything: case refs are appended only when
// absent, messages are copied by id set difference, and the last-message
// preview is only overwritten by a newer timestamp.
type Merger struct {
	store rtdb.Client
	log   *logger.Logger
}

// NewMerger creates a merge executor
func NewMerger(store rtdb.Client, log *logger.Logger) *Merger {
	return &Merger{store: store, log: log}
}

// MergeResult reports what a merge actually did
type MergeResult struct {
	MessagesCopied int
	CaseRefAdded   bool
}

// Merge consolidates legacyRoomID into canonicalRoomID on behalf of the
// case described by ref. The legacy room is left in place for audit.
func (m *Merger) Merge(ctx context.Context, legacyRoomID, canonicalRoomID string, ref rtdb.CaseRef) (MergeResult, error) {
	var result MergeResult

	meta, err := m.loadMetadata(ctx, canonicalRoomID)
	if err != nil {
		return result, err
	}

	if !meta.HasCase(ref.CaseID) {
		refs := append(meta.CaseRefs, ref)
		if err := m.store.Update(ctx, rtdb.MetadataPath(canonicalRoomID), map[string]any{
			"caseRefs": refs,
		}); err != nil {
			return result, fmt.Errorf("append case ref: %w", err)
		}
		meta.CaseRefs = refs
		result.CaseRefAdded = true
	}

	legacy, err := m.loadMessages(ctx, legacyRoomID)
	if err != nil {
		return result, err
	}
	canonical, err := m.loadMessages(ctx, canonicalRoomID)
	if err != nil {
		return result, err
	}

	for id, msg := range legacy {
		if _, exists := canonical[id]; exists {
			continue
		}
		if err := m.store.Set(ctx, rtdb.MessagePath(canonicalRoomID, id), msg); err != nil {
			return result, fmt.Errorf("copy message %s: %w", id, err)
		}
		canonical[id] = msg
		result.MessagesCopied++
	}

	if err := m.recomputeLastMessage(ctx, canonicalRoomID, meta, canonical); err != nil {
		return result, err
	}

	m.log.Info("room merged",
		"legacy_room", legacyRoomID,
		"canonical_room", canonicalRoomID,
		"messages_copied", result.MessagesCopied,
		"case_ref_added", result.CaseRefAdded,
	)
	return result, nil
}

// PendingCopies reports how many legacy messages a merge would copy,
// without writing anything. Dry runs use it.
func (m *Merger) PendingCopies(ctx context.Context, legacyRoomID, canonicalRoomID string) (int, error) {
	legacy, err := m.loadMessages(ctx, legacyRoomID)
	if err != nil {
		return 0, err
	}
	canonical, err := m.loadMessages(ctx, canonicalRoomID)
	if err != nil {
		return 0, err
	}

	pending := 0
	for id := range legacy {
		if _, exists := canonical[id]; !exists {
			pending++
		}
	}
	return pending, nil
}

func (m *Merger) loadMessages(ctx context.Context, roomID string) (map[string]rtdb.MessageRecord, error) {
	snap, err := m.store.Get(ctx, rtdb.MessagesPath(roomID))
	if err != nil {
		return nil, fmt.Errorf("read messages of %s: %w", roomID, err)
	}
	msgs, err := rtdb.DecodeMessages(snap)
	if err != nil {
		return nil, fmt.Errorf("decode messages of %s: %w", roomID, err)
	}
	return msgs, nil
}

func (m *Merger) loadMetadata(ctx context.Context, roomID string) (rtdb.RoomMetadata, error) {
	snap, err := m.store.Get(ctx, rtdb.MetadataPath(roomID))
	if err != nil {
		return rtdb.RoomMetadata{}, fmt.Errorf("read metadata of %s: %w", roomID, err)
	}
	meta, err := rtdb.DecodeMetadata(snap)
	if err != nil {
		return rtdb.RoomMetadata{}, fmt.Errorf("decode metadata of %s: %w", roomID, err)
	}
	return meta, nil
}

// recomputeLastMessage scans the merged message set for the newest entry
// and updates the preview if it is newer than what the metadata holds.
func (m *Merger) recomputeLastMessage(ctx context.Context, roomID string, meta rtdb.RoomMetadata, messages map[string]rtdb.MessageRecord) error {
	var newestAt int64
	var newestContent string
	for _, msg := range messages {
		if t := msg.EffectiveTime(); t > newestAt {
			newestAt = t
			newestContent = msg.Content
		}
	}

	if newestAt <= meta.LastMessageAt {
		return nil
	}

	if err := m.store.Update(ctx, rtdb.MetadataPath(roomID), map[string]any{
		"lastMessage":   truncatePreview(newestContent),
		"lastMessageAt": newestAt,
	}); err != nil {
		return fmt.Errorf("update last message: %w", err)
	}
	return nil
}

func truncatePreview(s string) string {
	if len(s) <= lastMessagePreviewLen {
		return s
	}
	return s[:lastMessagePreviewLen]
}
