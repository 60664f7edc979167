package service

import (
	"context"
	"testing"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/rtdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type docFixture struct {
	docs   *fakeDocRepo
	notifs *fakeNotificationRepo
	svc    *DocumentService
}

func newDocFixture(kase *models.Case, docs ...*models.Document) *docFixture {
	client := &models.User{ID: "u-client", Role: "client", Email: "client@example.com", ExternalUID: "client123"}
	agent := &models.User{ID: "u-agent", Role: "agent", Email: "agent@example.com", ExternalUID: "agent456"}

	users := newFakeUserRepo(client, agent)
	docRepo := newFakeDocRepo(docs...)
	log := testLogger()
	notifRepo := &fakeNotificationRepo{}
	notifier := NewNotificationService(notifRepo, users, rtdb.NewMemoryClient(), nil, NewNoopSender(log), log)

	return &docFixture{
		docs:   docRepo,
		notifs: notifRepo,
		svc:    NewDocumentService(docRepo, newFakeCaseRepo(kase), users, notifier, log),
	}
}

func uploadReq() models.CreateDocumentRequest {
	return models.CreateDocumentRequest{
		Name:        "passport.pdf",
		FileURL:     "https://files.example.com/passport.pdf",
		ContentType: "application/pdf",
		Size:        1024,
	}
}

func TestRegisterDocumentNotifiesAgent(t *testing.T) {
	kase := &models.Case{ID: "case-c", ReferenceNumber: "IMM-2026-CCCCCC", ClientID: "u-client", AgentID: strPtr("u-agent")}
	fx := newDocFixture(kase)

	doc, err := fx.svc.Register(context.Background(), clientClaims(), "case-c", uploadReq())
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusPending, doc.Status)
	assert.Equal(t, "u-client", doc.UploaderID)

	notifs := fx.notifs.byUser("u-agent")
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationDocumentReview, notifs[0].Type)
}

func TestRegisterDocumentStrangerForbidden(t *testing.T) {
	kase := &models.Case{ID: "case-c", ClientID: "u-client", AgentID: strPtr("u-agent")}
	fx := newDocFixture(kase)

	stranger := clientClaims()
	stranger.UserID = "u-other"
	_, err := fx.svc.Register(context.Background(), stranger, "case-c", uploadReq())
	assert.ErrorIs(t, err, ErrForbiddenCase)
}

func TestReviewDocument(t *testing.T) {
	kase := &models.Case{ID: "case-c", ReferenceNumber: "IMM-2026-CCCCCC", ClientID: "u-client", AgentID: strPtr("u-agent")}
	doc := &models.Document{ID: "d1", CaseID: "case-c", UploaderID: "u-client", Name: "passport.pdf", Status: models.DocumentStatusPending}
	fx := newDocFixture(kase, doc)

	reviewed, err := fx.svc.Review(context.Background(), agentClaims(), "d1", models.ReviewDocumentRequest{
		Status: models.DocumentStatusApproved,
		Note:   "looks genuine",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "u-agent", *reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)

	// Uploader was notified, and a second review is refused
	assert.Len(t, fx.notifs.byUser("u-client"), 1)
	_, err = fx.svc.Review(context.Background(), agentClaims(), "d1", models.ReviewDocumentRequest{Status: models.DocumentStatusRejected})
	assert.ErrorIs(t, err, ErrDocumentNotPending)
}

func TestReviewRequiresAssignedAgent(t *testing.T) {
	kase := &models.Case{ID: "case-c", ClientID: "u-client", AgentID: strPtr("u-agent")}
	doc := &models.Document{ID: "d1", CaseID: "case-c", UploaderID: "u-client", Status: models.DocumentStatusPending}
	fx := newDocFixture(kase, doc)

	otherAgent := agentClaims()
	otherAgent.UserID = "u-agent-2"
	_, err := fx.svc.Review(context.Background(), otherAgent, "d1", models.ReviewDocumentRequest{Status: models.DocumentStatusApproved})
	assert.ErrorIs(t, err, ErrForbiddenCase)

	_, err = fx.svc.Review(context.Background(), clientClaims(), "d1", models.ReviewDocumentRequest{Status: models.DocumentStatusApproved})
	assert.ErrorIs(t, err, ErrForbiddenCase)
}
