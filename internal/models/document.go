package models

import (
	"time"
)

// Document review statuses
const (
	DocumentStatusPending  = "pending"
	DocumentStatusApproved = "approved"
	DocumentStatusRejected = "rejected"
)

// Document is a file a client attaches to a case. The file itself lives in
// object storage; only the metadata is kept here.
type Document struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID      string     `gorm:"type:uuid;index;not null" json:"case_id"`
	UploaderID  string     `gorm:"type:uuid;not null" json:"uploader_id"`
	Name        string     `json:"name"`
	FileURL     string     `json:"file_url"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	Status      string     `gorm:"index;default:pending" json:"status"`
	ReviewNote  string     `json:"review_note,omitempty"`
	ReviewedBy  *string    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateDocumentRequest is the request body for registering an upload
type CreateDocumentRequest struct {
	Name        string `json:"name" binding:"required"`
	FileURL     string `json:"file_url" binding:"required,url"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

// ReviewDocumentRequest is the request body for approving or rejecting a document
type ReviewDocumentRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Note   string `json:"note,omitempty"`
}
