package rtdb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveTimePrefersSentAt(t *testing.T) {
	assert.Equal(t, int64(10), MessageRecord{SentAt: 10, CreatedAt: 20}.EffectiveTime())
	assert.Equal(t, int64(20), MessageRecord{CreatedAt: 20}.EffectiveTime())
	assert.Equal(t, int64(0), MessageRecord{}.EffectiveTime())
}

func TestDecodeMessagesRejectsMalformedShape(t *testing.T) {
	snap := NewSnapshot(json.RawMessage(`{"m1": {"senderId": 42}}`))

	_, err := DecodeMessages(snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected record shape")
}

func TestDecodeMessagesRejectsMissingSender(t *testing.T) {
	snap := NewSnapshot(json.RawMessage(`{"m1": {"recipientId": "b", "content": "x"}}`))

	_, err := DecodeMessages(snap)
	require.Error(t, err)
}

func TestDecodeMessagesEmptySnapshot(t *testing.T) {
	messages, err := DecodeMessages(Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDecodeMetadata(t *testing.T) {
	snap := NewSnapshot(json.RawMessage(`{
		"caseRefs": [{"caseId": "c1", "referenceNumber": "IMM-2026-AB12CD", "assignedAt": 100}],
		"lastMessage": "see you then",
		"lastMessageAt": 200
	}`))

	meta, err := DecodeMetadata(snap)
	require.NoError(t, err)
	assert.True(t, meta.HasCase("c1"))
	assert.False(t, meta.HasCase("c2"))
	assert.Equal(t, int64(200), meta.LastMessageAt)
}

func TestDecodeMetadataMissing(t *testing.T) {
	meta, err := DecodeMetadata(Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, meta.CaseRefs)
}
