package chat

import (
	"context"
	"testing"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/rtdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store    *rtdb.MemoryClient
	messages *fakeMessageRepo
	notifier *recordingNotifier
	svc      *Service
}

func newServiceFixture(kase *models.Case) *serviceFixture {
	client := &models.User{ID: "u-client", Role: "client", ExternalUID: "client123"}
	agent := &models.User{ID: "u-agent", Role: "agent", ExternalUID: "agent456"}

	store := rtdb.NewMemoryClient()
	msgRepo := newFakeMessageRepo()
	userRepo := newFakeUserRepo(client, agent)
	caseRepo := newFakeCaseRepo(kase)
	locator := NewRoomLocator(caseRepo, userRepo)
	notifier := &recordingNotifier{}

	return &serviceFixture{
		store:    store,
		messages: msgRepo,
		notifier: notifier,
		svc:      NewService(msgRepo, caseRepo, userRepo, locator, store, notifier, testLogger()),
	}
}

func activeCase() *models.Case {
	return &models.Case{
		ID:       "case-c",
		ClientID: "u-client",
		AgentID:  strPtr("u-agent"),
		Status:   models.CaseStatusUnderReview,
	}
}

func TestSendMessageDualWrite(t *testing.T) {
	fx := newServiceFixture(activeCase())
	ctx := context.Background()

	msg, err := fx.svc.SendMessage(ctx, Caller{UserID: "u-client", ExternalUID: "client123"}, models.SendMessageRequest{
		CaseID:  "case-c",
		Content: "when is my interview?",
	})
	require.NoError(t, err)
	assert.Equal(t, "client123-agent456", msg.ChatRoomID)
	assert.Equal(t, "client123", msg.SenderID)
	assert.Equal(t, "agent456", msg.RecipientID)
	require.NotNil(t, msg.CaseID)
	assert.Equal(t, "case-c", *msg.CaseID)

	// The real-time store got the message and a metadata preview
	records := roomMessages(t, fx.store, "client123-agent456")
	require.Len(t, records, 1)
	rec := records[msg.ExternalID]
	assert.Equal(t, "when is my interview?", rec.Content)
	assert.False(t, rec.IsRead)

	meta := roomMetadata(t, fx.store, "client123-agent456")
	assert.Equal(t, "when is my interview?", meta.LastMessage)
	assert.NotZero(t, meta.LastMessageAt)

	// The mirror row exists
	count, err := fx.messages.UnreadCount(ctx, "agent456")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The agent was notified
	require.Len(t, fx.notifier.sent, 1)
	assert.Equal(t, models.NotificationNewMessage, fx.notifier.sent[0].Type)
	assert.Equal(t, "u-agent", fx.notifier.sent[0].UserID)
}

func TestSendMessageAgentToClient(t *testing.T) {
	fx := newServiceFixture(activeCase())

	msg, err := fx.svc.SendMessage(context.Background(), Caller{UserID: "u-agent", ExternalUID: "agent456"}, models.SendMessageRequest{
		CaseID:  "case-c",
		Content: "next week",
	})
	require.NoError(t, err)
	assert.Equal(t, "client123-agent456", msg.ChatRoomID)
	assert.Equal(t, "client123", msg.RecipientID)
}

func TestSendMessageRejectsOutsiders(t *testing.T) {
	fx := newServiceFixture(activeCase())

	_, err := fx.svc.SendMessage(context.Background(), Caller{UserID: "u-stranger", ExternalUID: "stranger999"}, models.SendMessageRequest{
		CaseID:  "case-c",
		Content: "let me in",
	})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSendMessageRequiresAssignedAgent(t *testing.T) {
	kase := activeCase()
	kase.AgentID = nil
	fx := newServiceFixture(kase)

	_, err := fx.svc.SendMessage(context.Background(), Caller{UserID: "u-client", ExternalUID: "client123"}, models.SendMessageRequest{
		CaseID:  "case-c",
		Content: "anyone there?",
	})
	assert.ErrorIs(t, err, ErrNoAgentAssigned)

	// Nothing was written anywhere
	assert.Zero(t, fx.store.WriteCount())
}

func TestHistoryScopedToCaller(t *testing.T) {
	fx := newServiceFixture(activeCase())
	ctx := context.Background()

	caseID := "case-c"
	require.NoError(t, fx.messages.Create(ctx, &models.ChatMessage{
		ID: "m1", ExternalID: "ext-1", ChatRoomID: "client123-agent456", CaseID: &caseID,
		SenderID: "client123", RecipientID: "agent456", Content: "mine",
	}))
	require.NoError(t, fx.messages.Create(ctx, &models.ChatMessage{
		ID: "m2", ExternalID: "ext-2", ChatRoomID: "other-room",
		SenderID: "someone", RecipientID: "else", Content: "not mine",
	}))

	msgs, total, err := fx.svc.History(ctx, Caller{ExternalUID: "client123"}, models.ChatHistoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, msgs, 1)
	assert.Equal(t, "mine", msgs[0].Content)
}
