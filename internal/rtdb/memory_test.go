package rtdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetLeaf(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	err := c.Set(ctx, MessagePath("room-1", "m1"), MessageRecord{
		SenderID:    "uid-a",
		RecipientID: "uid-b",
		Content:     "hello",
		SentAt:      1000,
	})
	require.NoError(t, err)

	snap, err := c.Get(ctx, MessagePath("room-1", "m1"))
	require.NoError(t, err)
	require.True(t, snap.Exists())

	var msg MessageRecord
	require.NoError(t, snap.Decode(&msg))
	assert.Equal(t, "uid-a", msg.SenderID)
	assert.Equal(t, "hello", msg.Content)
}

func TestGetMissingPathDoesNotExist(t *testing.T) {
	c := NewMemoryClient()

	snap, err := c.Get(context.Background(), RoomPath("nope"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestGetParentAssemblesChildren(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, MessagePath("room-1", "m1"), MessageRecord{SenderID: "a", RecipientID: "b", SentAt: 1}))
	require.NoError(t, c.Set(ctx, MessagePath("room-1", "m2"), MessageRecord{SenderID: "b", RecipientID: "a", SentAt: 2}))

	snap, err := c.Get(ctx, MessagesPath("room-1"))
	require.NoError(t, err)
	require.True(t, snap.Exists())

	messages, err := DecodeMessages(snap)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "a", messages["m1"].SenderID)
	assert.Equal(t, "b", messages["m2"].SenderID)
}

func TestUpdateMergesFields(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, MetadataPath("room-1"), RoomMetadata{LastMessage: "hi", LastMessageAt: 5}))
	require.NoError(t, c.Update(ctx, MetadataPath("room-1"), map[string]any{"lastMessageAt": 9}))

	snap, err := c.Get(ctx, MetadataPath("room-1"))
	require.NoError(t, err)

	meta, err := DecodeMetadata(snap)
	require.NoError(t, err)
	assert.Equal(t, "hi", meta.LastMessage)
	assert.Equal(t, int64(9), meta.LastMessageAt)
}

func TestDeleteRemovesSubtree(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, MessagePath("room-1", "m1"), MessageRecord{SenderID: "a"}))
	require.NoError(t, c.Set(ctx, MetadataPath("room-1"), RoomMetadata{}))

	require.NoError(t, c.Delete(ctx, RoomPath("room-1")))

	snap, err := c.Get(ctx, RoomPath("room-1"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}
