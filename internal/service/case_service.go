package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"immigration-case-portal/backend/internal/chat"
	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/jwt"
	"immigration-case-portal/backend/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrForbiddenCase       = errors.New("user may not access this case")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidPriority     = errors.New("unknown priority")
	ErrAssigneeNotAgent    = errors.New("assignee is not an agent")
	ErrCaseAlreadyAssigned = errors.New("case already has an agent")
)

// CaseService implements the case lifecycle. Assigning an agent also
// stamps the pair's chat room metadata so the conversation is linked to
// the case from day one.
type CaseService struct {
	cases    repository.CaseRepository
	users    repository.UserRepository
	locator  *chat.RoomLocator
	store    rtdb.Client
	notifier *NotificationService
	log      *logger.Logger
}

// NewCaseService creates the case service
func NewCaseService(
	cases repository.CaseRepository,
	users repository.UserRepository,
	locator *chat.RoomLocator,
	store rtdb.Client,
	notifier *NotificationService,
	log *logger.Logger,
) *CaseService {
	return &CaseService{
		cases:    cases,
		users:    users,
		locator:  locator,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// newReferenceNumber builds a human-quotable case reference, IMM-2026-3F0A1C
func newReferenceNumber() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("IMM-%d-%s", time.Now().Year(), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// Create opens a new case for the calling client
func (s *CaseService) Create(ctx context.Context, clientID string, req models.CreateCaseRequest) (*models.Case, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !models.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	ref, err := newReferenceNumber()
	if err != nil {
		return nil, fmt.Errorf("generate reference: %w", err)
	}

	kase := &models.Case{
		ID:              uuid.New().String(),
		ReferenceNumber: ref,
		ClientID:        clientID,
		CaseType:        req.CaseType,
		Status:          models.CaseStatusSubmitted,
		Priority:        priority,
		Description:     req.Description,
	}
	if err := s.cases.Create(ctx, kase); err != nil {
		return nil, err
	}

	s.log.WithCaseID(kase.ID).Info("case opened", "reference", kase.ReferenceNumber, "type", kase.CaseType)
	return kase, nil
}

// Get loads a case, enforcing participant visibility
func (s *CaseService) Get(ctx context.Context, caller *jwt.Claims, caseID string) (*models.Case, error) {
	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, kase); err != nil {
		return nil, err
	}
	return kase, nil
}

// List returns cases visible to the caller. Clients see their own, agents
// their assignments, admins everything.
func (s *CaseService) List(ctx context.Context, caller *jwt.Claims, filter repository.CaseFilter) ([]models.Case, int64, error) {
	switch caller.Role {
	case jwt.RoleClient:
		filter.ClientID = caller.UserID
	case jwt.RoleAgent:
		filter.AgentID = caller.UserID
	}
	return s.cases.List(ctx, filter)
}

// UpdateStatus moves a case through its lifecycle and tells the client
func (s *CaseService) UpdateStatus(ctx context.Context, caller *jwt.Claims, caseID string, req models.UpdateCaseStatusRequest) (*models.Case, error) {
	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWorker(caller, kase); err != nil {
		return nil, err
	}
	if !kase.CanTransition(req.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, kase.Status, req.Status)
	}

	previous := kase.Status
	kase.Status = req.Status
	if err := s.cases.Update(ctx, kase); err != nil {
		return nil, err
	}

	s.log.WithCaseID(kase.ID).Info("case status changed", "from", previous, "to", kase.Status)

	if s.notifier != nil {
		body := fmt.Sprintf("Case %s moved from %s to %s.", kase.ReferenceNumber, previous, kase.Status)
		if req.Note != "" {
			body += " Note: " + req.Note
		}
		caseID := kase.ID
		s.notifier.Notify(ctx, &models.Notification{
			UserID: kase.ClientID,
			Type:   models.NotificationCaseStatus,
			Title:  "Case status updated",
			Body:   body,
			CaseID: &caseID,
		}, s.externalUID(ctx, kase.ClientID))
	}
	return kase, nil
}

// AssignAgent puts an agent on the case and links the pair's chat room to
// it. Admin only; enforced again here because the router is not the only
// caller.
func (s *CaseService) AssignAgent(ctx context.Context, caller *jwt.Claims, caseID string, req models.AssignCaseRequest) (*models.Case, error) {
	if !caller.HasRole(jwt.RoleAdmin) {
		return nil, ErrForbiddenCase
	}

	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if kase.AgentID != nil && *kase.AgentID != "" {
		return nil, ErrCaseAlreadyAssigned
	}

	agent, err := s.users.GetByID(ctx, req.AgentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != string(jwt.RoleAgent) {
		return nil, ErrAssigneeNotAgent
	}

	kase.AgentID = &agent.ID
	if err := s.cases.Update(ctx, kase); err != nil {
		return nil, err
	}

	if err := s.linkChatRoom(ctx, kase); err != nil {
		// The assignment stands; the chat migration pass links the room later
		s.log.Warn("chat room link failed", "case_id", kase.ID, "error", err.Error())
	}

	if s.notifier != nil {
		cid := kase.ID
		s.notifier.Notify(ctx, &models.Notification{
			UserID: kase.ClientID,
			Type:   models.NotificationCaseAssigned,
			Title:  "An agent was assigned to your case",
			Body:   fmt.Sprintf("%s is now handling case %s.", agent.Name, kase.ReferenceNumber),
			CaseID: &cid,
		}, s.externalUID(ctx, kase.ClientID))
		s.notifier.Notify(ctx, &models.Notification{
			UserID: agent.ID,
			Type:   models.NotificationCaseAssigned,
			Title:  "New case assigned to you",
			Body:   fmt.Sprintf("Case %s is now yours.", kase.ReferenceNumber),
			CaseID: &cid,
		}, agent.ExternalUID)
	}

	s.log.WithCaseID(kase.ID).Info("case assigned", "agent_id", agent.ID)
	return kase, nil
}

// linkChatRoom stamps the canonical room's metadata with a reference to
// the case, creating the room record if this is the pair's first case.
func (s *CaseService) linkChatRoom(ctx context.Context, kase *models.Case) error {
	room, err := s.locator.Locate(ctx, kase)
	if err != nil {
		return err
	}

	snap, err := s.store.Get(ctx, rtdb.MetadataPath(room))
	if err != nil {
		return err
	}
	meta, err := rtdb.DecodeMetadata(snap)
	if err != nil {
		return err
	}
	if meta.HasCase(kase.ID) {
		return nil
	}

	refs := append(meta.CaseRefs, rtdb.CaseRef{
		CaseID:          kase.ID,
		ReferenceNumber: kase.ReferenceNumber,
		AssignedAt:      time.Now().UnixMilli(),
	})
	return s.store.Update(ctx, rtdb.MetadataPath(room), map[string]any{"caseRefs": refs})
}

// externalUID resolves a user's real-time store identity, empty on failure
func (s *CaseService) externalUID(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.ExternalUID
}

// authorize allows the case's client, its agent and admins
func (s *CaseService) authorize(caller *jwt.Claims, kase *models.Case) error {
	if caller.HasRole(jwt.RoleAdmin) {
		return nil
	}
	if kase.ClientID == caller.UserID {
		return nil
	}
	if kase.AgentID != nil && *kase.AgentID == caller.UserID {
		return nil
	}
	return ErrForbiddenCase
}

// authorizeWorker allows the assigned agent and admins, but not the client
func (s *CaseService) authorizeWorker(caller *jwt.Claims, kase *models.Case) error {
	if caller.HasRole(jwt.RoleAdmin) {
		return nil
	}
	if caller.Role == jwt.RoleAgent && kase.AgentID != nil && *kase.AgentID == caller.UserID {
		return nil
	}
	return ErrForbiddenCase
}
