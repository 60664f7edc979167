package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/pkg/jwt"
	"immigration-case-portal/backend/pkg/logger"

	"github.com/google/uuid"
)

var ErrDocumentNotPending = errors.New("document was already reviewed")

// DocumentService tracks case document metadata and the review flow
type DocumentService struct {
	docs     repository.DocumentRepository
	cases    repository.CaseRepository
	users    repository.UserRepository
	notifier *NotificationService
	log      *logger.Logger
}

// NewDocumentService creates the document service
func NewDocumentService(
	docs repository.DocumentRepository,
	cases repository.CaseRepository,
	users repository.UserRepository,
	notifier *NotificationService,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		docs:     docs,
		cases:    cases,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// Register records an uploaded document against a case and tells the agent
func (s *DocumentService) Register(ctx context.Context, caller *jwt.Claims, caseID string, req models.CreateDocumentRequest) (*models.Document, error) {
	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !caller.HasRole(jwt.RoleAdmin) && kase.ClientID != caller.UserID {
		if kase.AgentID == nil || *kase.AgentID != caller.UserID {
			return nil, ErrForbiddenCase
		}
	}

	doc := &models.Document{
		ID:          uuid.New().String(),
		CaseID:      kase.ID,
		UploaderID:  caller.UserID,
		Name:        req.Name,
		FileURL:     req.FileURL,
		ContentType: req.ContentType,
		Size:        req.Size,
		Status:      models.DocumentStatusPending,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	if s.notifier != nil && kase.AgentID != nil && *kase.AgentID != caller.UserID {
		cid := kase.ID
		s.notifier.Notify(ctx, &models.Notification{
			UserID: *kase.AgentID,
			Type:   models.NotificationDocumentReview,
			Title:  "New document to review",
			Body:   fmt.Sprintf("%s was uploaded to case %s.", doc.Name, kase.ReferenceNumber),
			CaseID: &cid,
		}, s.externalUID(ctx, *kase.AgentID))
	}

	s.log.WithCaseID(kase.ID).Info("document registered", "document_id", doc.ID, "name", doc.Name)
	return doc, nil
}

// Review approves or rejects a pending document and tells the uploader
func (s *DocumentService) Review(ctx context.Context, caller *jwt.Claims, documentID string, req models.ReviewDocumentRequest) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentStatusPending {
		return nil, ErrDocumentNotPending
	}

	kase, err := s.cases.GetByID(ctx, doc.CaseID)
	if err != nil {
		return nil, err
	}
	if !caller.HasRole(jwt.RoleAdmin) {
		if caller.Role != jwt.RoleAgent || kase.AgentID == nil || *kase.AgentID != caller.UserID {
			return nil, ErrForbiddenCase
		}
	}

	now := time.Now().UTC()
	doc.Status = req.Status
	doc.ReviewNote = req.Note
	doc.ReviewedBy = &caller.UserID
	doc.ReviewedAt = &now
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		cid := kase.ID
		s.notifier.Notify(ctx, &models.Notification{
			UserID: doc.UploaderID,
			Type:   models.NotificationDocumentReview,
			Title:  "Document " + doc.Status,
			Body:   fmt.Sprintf("%s on case %s was %s.", doc.Name, kase.ReferenceNumber, doc.Status),
			CaseID: &cid,
		}, s.externalUID(ctx, doc.UploaderID))
	}

	s.log.WithCaseID(kase.ID).Info("document reviewed", "document_id", doc.ID, "status", doc.Status)
	return doc, nil
}

// ListByCase returns the documents of a case the caller can see
func (s *DocumentService) ListByCase(ctx context.Context, caller *jwt.Claims, caseID string) ([]models.Document, error) {
	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !caller.HasRole(jwt.RoleAdmin) && kase.ClientID != caller.UserID {
		if kase.AgentID == nil || *kase.AgentID != caller.UserID {
			return nil, ErrForbiddenCase
		}
	}
	return s.docs.ListByCase(ctx, caseID)
}

func (s *DocumentService) externalUID(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.ExternalUID
}
