package models

import (
	"time"
)

// Notification types
const (
	NotificationCaseStatus     = "case_status"
	NotificationCaseAssigned   = "case_assigned"
	NotificationDocumentReview = "document_review"
	NotificationAppointment    = "appointment"
	NotificationNewMessage     = "new_message"
	NotificationWelcome        = "welcome"
)

// Notification is a per-user notification row. Delivery to the real-time
// store, websocket and email are best-effort side effects; this row is the
// authoritative record.
type Notification struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string     `gorm:"type:uuid;index;not null" json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	CaseID    *string    `gorm:"type:uuid;index" json:"case_id,omitempty"`
	IsRead    bool       `gorm:"index;default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
