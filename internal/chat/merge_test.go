package chat

import (
	"context"
	"strings"
	"testing"

	"immigration-case-portal/backend/internal/rtdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessage(t *testing.T, store *rtdb.MemoryClient, roomID, id string, rec rtdb.MessageRecord) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), rtdb.MessagePath(roomID, id), rec))
}

func roomMessages(t *testing.T, store *rtdb.MemoryClient, roomID string) map[string]rtdb.MessageRecord {
	t.Helper()
	snap, err := store.Get(context.Background(), rtdb.MessagesPath(roomID))
	require.NoError(t, err)
	msgs, err := rtdb.DecodeMessages(snap)
	require.NoError(t, err)
	return msgs
}

func roomMetadata(t *testing.T, store *rtdb.MemoryClient, roomID string) rtdb.RoomMetadata {
	t.Helper()
	snap, err := store.Get(context.Background(), rtdb.MetadataPath(roomID))
	require.NoError(t, err)
	meta, err := rtdb.DecodeMetadata(snap)
	require.NoError(t, err)
	return meta
}

func TestMergeCopiesAndRecomputes(t *testing.T) {
	store := rtdb.NewMemoryClient()
	ctx := context.Background()

	seedMessage(t, store, "case-c", "m1", rtdb.MessageRecord{SenderID: "client123", RecipientID: "agent456", Content: "hello", SentAt: 100})
	seedMessage(t, store, "case-c", "m2", rtdb.MessageRecord{SenderID: "agent456", RecipientID: "client123", Content: "hi", SentAt: 200})
	seedMessage(t, store, "case-c", "m3", rtdb.MessageRecord{SenderID: "client123", RecipientID: "agent456", Content: strings.Repeat("x", 150), SentAt: 300})

	merger := NewMerger(store, testLogger())
	ref := rtdb.CaseRef{CaseID: "case-c", ReferenceNumber: "IMM-2026-ABC123", AssignedAt: 50}

	res, err := merger.Merge(ctx, "case-c", "client123-agent456", ref)
	require.NoError(t, err)
	assert.Equal(t, 3, res.MessagesCopied)
	assert.True(t, res.CaseRefAdded)

	msgs := roomMessages(t, store, "client123-agent456")
	assert.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs["m1"].Content)

	meta := roomMetadata(t, store, "client123-agent456")
	assert.True(t, meta.HasCase("case-c"))
	assert.Equal(t, int64(300), meta.LastMessageAt)
	assert.Len(t, meta.LastMessage, lastMessagePreviewLen)

	// Legacy room stays untouched
	assert.Len(t, roomMessages(t, store, "case-c"), 3)
}

func TestMergeIsIdempotent(t *testing.T) {
	store := rtdb.NewMemoryClient()
	ctx := context.Background()

	seedMessage(t, store, "case-c", "m1", rtdb.MessageRecord{SenderID: "client123", RecipientID: "agent456", Content: "hello", SentAt: 100})

	merger := NewMerger(store, testLogger())
	ref := rtdb.CaseRef{CaseID: "case-c", ReferenceNumber: "IMM-2026-ABC123"}

	_, err := merger.Merge(ctx, "case-c", "client123-agent456", ref)
	require.NoError(t, err)

	res, err := merger.Merge(ctx, "case-c", "client123-agent456", ref)
	require.NoError(t, err)
	assert.Zero(t, res.MessagesCopied)
	assert.False(t, res.CaseRefAdded)

	meta := roomMetadata(t, store, "client123-agent456")
	require.Len(t, meta.CaseRefs, 1)
}

func TestMergeSkipsMessagesAlreadyPresent(t *testing.T) {
	store := rtdb.NewMemoryClient()
	ctx := context.Background()

	shared := rtdb.MessageRecord{SenderID: "client123", RecipientID: "agent456", Content: "already there", SentAt: 100}
	seedMessage(t, store, "case-c", "m1", shared)
	seedMessage(t, store, "case-c", "m2", rtdb.MessageRecord{SenderID: "client123", RecipientID: "agent456", Content: "new", SentAt: 200})
	seedMessage(t, store, "client123-agent456", "m1", shared)

	merger := NewMerger(store, testLogger())
	res, err := merger.Merge(ctx, "case-c", "client123-agent456", rtdb.CaseRef{CaseID: "case-c"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.MessagesCopied)
	assert.Len(t, roomMessages(t, store, "client123-agent456"), 2)
}

func TestMergeKeepsNewerLastMessage(t *testing.T) {
	store := rtdb.NewMemoryClient()
	ctx := context.Background()

	// Canonical room already has newer activity than the legacy room
	seedMessage(t, store, "client123-agent456", "recent", rtdb.MessageRecord{SenderID: "agent456", RecipientID: "client123", Content: "latest word", SentAt: 900})
	require.NoError(t, store.Update(ctx, rtdb.MetadataPath("client123-agent456"), map[string]any{
		"lastMessage":   "latest word",
		"lastMessageAt": int64(900),
	}))

	seedMessage(t, store, "case-c", "old", rtdb.MessageRecord{SenderID: "client123", RecipientID: "agent456", Content: "stale", SentAt: 100})

	merger := NewMerger(store, testLogger())
	_, err := merger.Merge(ctx, "case-c", "client123-agent456", rtdb.CaseRef{CaseID: "case-c"})
	require.NoError(t, err)

	meta := roomMetadata(t, store, "client123-agent456")
	assert.Equal(t, "latest word", meta.LastMessage)
	assert.Equal(t, int64(900), meta.LastMessageAt)
}

func TestMergeUsesCreatedAtFallback(t *testing.T) {
	store := rtdb.NewMemoryClient()
	ctx := context.Background()

	// Old clients wrote createdAt instead of sentAt
	seedMessage(t, store, "case-c", "m1", rtdb.MessageRecord{SenderID: "client123", RecipientID: "agent456", Content: "from old client", CreatedAt: 500})

	merger := NewMerger(store, testLogger())
	_, err := merger.Merge(ctx, "case-c", "client123-agent456", rtdb.CaseRef{CaseID: "case-c"})
	require.NoError(t, err)

	meta := roomMetadata(t, store, "client123-agent456")
	assert.Equal(t, int64(500), meta.LastMessageAt)
	assert.Equal(t, "from old client", meta.LastMessage)
}

func TestPendingCopies(t *testing.T) {
	store := rtdb.NewMemoryClient()
	ctx := context.Background()

	seedMessage(t, store, "case-c", "m1", rtdb.MessageRecord{SenderID: "client123", Content: "a", SentAt: 1})
	seedMessage(t, store, "case-c", "m2", rtdb.MessageRecord{SenderID: "client123", Content: "b", SentAt: 2})
	seedMessage(t, store, "client123-agent456", "m1", rtdb.MessageRecord{SenderID: "client123", Content: "a", SentAt: 1})

	merger := NewMerger(store, testLogger())
	before := store.WriteCount()

	pending, err := merger.PendingCopies(ctx, "case-c", "client123-agent456")
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, before, store.WriteCount())
}
