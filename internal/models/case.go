package models

import (
	"time"
)

// Case lifecycle statuses
const (
	CaseStatusSubmitted         = "submitted"
	CaseStatusDocumentsRequired = "documents_required"
	CaseStatusUnderReview       = "under_review"
	CaseStatusApproved          = "approved"
	CaseStatusRejected          = "rejected"
	CaseStatusClosed            = "closed"
)

// Case priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Case is an immigration case submitted by a client and worked by an agent.
// AgentID is nil until an admin assigns the case.
type Case struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	ReferenceNumber string    `gorm:"uniqueIndex" json:"reference_number"`
	ClientID        string    `gorm:"type:uuid;index;not null" json:"client_id"`
	AgentID         *string   `gorm:"type:uuid;index" json:"agent_id,omitempty"`
	CaseType        string    `json:"case_type"`
	Status          string    `gorm:"index;default:submitted" json:"status"`
	Priority        string    `gorm:"default:normal" json:"priority"`
	Description     string    `gorm:"type:text" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Client *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Agent  *User `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
}

// caseTransitions lists the allowed status transitions
var caseTransitions = map[string][]string{
	CaseStatusSubmitted:         {CaseStatusDocumentsRequired, CaseStatusUnderReview, CaseStatusRejected},
	CaseStatusDocumentsRequired: {CaseStatusUnderReview, CaseStatusRejected},
	CaseStatusUnderReview:       {CaseStatusDocumentsRequired, CaseStatusApproved, CaseStatusRejected},
	CaseStatusApproved:          {CaseStatusClosed},
	CaseStatusRejected:          {CaseStatusClosed},
}

// CanTransition reports whether a case may move from its current status to next
func (c *Case) CanTransition(next string) bool {
	for _, allowed := range caseTransitions[c.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is a known priority level
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// CreateCaseRequest is the request body for opening a new case
type CreateCaseRequest struct {
	CaseType    string `json:"case_type" binding:"required"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority,omitempty"`
}

// UpdateCaseStatusRequest is the request body for a status transition
type UpdateCaseStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note,omitempty"`
}

// AssignCaseRequest is the request body for assigning an agent
type AssignCaseRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}
