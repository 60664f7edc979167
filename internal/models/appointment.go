package models

import (
	"time"
)

// Appointment statuses
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

// Appointment is a scheduled meeting between a client and an agent about a case
type Appointment struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID      string    `gorm:"type:uuid;index;not null" json:"case_id"`
	ClientID    string    `gorm:"type:uuid;index;not null" json:"client_id"`
	AgentID     string    `gorm:"type:uuid;index;not null" json:"agent_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location"`
	Purpose     string    `json:"purpose"`
	Status      string    `gorm:"default:scheduled" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateAppointmentRequest is the request body for scheduling an appointment
type CreateAppointmentRequest struct {
	CaseID      string    `json:"case_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Location    string    `json:"location" binding:"required"`
	Purpose     string    `json:"purpose,omitempty"`
}
