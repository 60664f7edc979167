// Package chat implements the conversation layer: the canonical room
// addressing scheme, the legacy-room consolidation pipeline, the
// read-status bridge between the relational mirror and the real-time
// store, and message send/history.
package chat

import (
	"context"
	"errors"
	"fmt"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
)

var (
	// ErrNoAgentAssigned means a canonical room cannot exist yet
	ErrNoAgentAssigned = errors.New("case has no assigned agent")
	// ErrNoExternalIdentity means a participant was never provisioned
	// in the real-time store
	ErrNoExternalIdentity = errors.New("participant has no external identity")
)

// CanonicalRoomID builds the current room id for a client/agent pair.
// The client identity always comes first, so the result does not depend
// on which side initiates the conversation.
func CanonicalRoomID(clientUID, agentUID string) string {
	return clientUID + "-" + agentUID
}

// LegacyRoomID is the deprecated addressing scheme: one room per case
func LegacyRoomID(caseID string) string {
	return caseID
}

// RoomLocator resolves a case to its canonical conversation room by
// looking up both participants' external identities. It performs reads
// only.
type RoomLocator struct {
	cases repository.CaseRepository
	users repository.UserRepository
}

// NewRoomLocator creates a room locator
func NewRoomLocator(cases repository.CaseRepository, users repository.UserRepository) *RoomLocator {
	return &RoomLocator{cases: cases, users: users}
}

// Locate derives the canonical room id for an already-loaded case
func (l *RoomLocator) Locate(ctx context.Context, kase *models.Case) (string, error) {
	if kase.AgentID == nil || *kase.AgentID == "" {
		return "", ErrNoAgentAssigned
	}

	client, err := l.users.GetByID(ctx, kase.ClientID)
	if err != nil {
		return "", fmt.Errorf("resolve client %s: %w", kase.ClientID, err)
	}
	agent, err := l.users.GetByID(ctx, *kase.AgentID)
	if err != nil {
		return "", fmt.Errorf("resolve agent %s: %w", *kase.AgentID, err)
	}

	if client.ExternalUID == "" || agent.ExternalUID == "" {
		return "", ErrNoExternalIdentity
	}

	return CanonicalRoomID(client.ExternalUID, agent.ExternalUID), nil
}

// LocateByCaseID loads the case and derives its canonical room id
func (l *RoomLocator) LocateByCaseID(ctx context.Context, caseID string) (string, error) {
	kase, err := l.cases.GetByID(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("resolve case %s: %w", caseID, err)
	}
	return l.Locate(ctx, kase)
}
