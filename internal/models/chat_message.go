package models

import (
	"time"
)

// ChatMessage is the relational mirror of a message in the real-time store.
// The real-time store remains the delivery channel; this mirror exists for
// queries the store cannot do efficiently (text search, arbitrary filters).
// ExternalID is the message key under chats/{room}/messages in the store.
type ChatMessage struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID  string     `gorm:"uniqueIndex;not null" json:"external_id"`
	ChatRoomID  string     `gorm:"index;not null" json:"chat_room_id"`
	CaseID      *string    `gorm:"type:uuid;index" json:"case_id,omitempty"`
	SenderID    string     `gorm:"index;not null" json:"sender_id"`
	RecipientID string     `gorm:"index;not null" json:"recipient_id"`
	Content     string     `gorm:"type:text" json:"content"`
	SentAt      time.Time  `json:"sent_at"`
	IsRead      bool       `gorm:"index;default:false" json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SendMessageRequest is the request body for sending a chat message
type SendMessageRequest struct {
	CaseID  string `json:"case_id" binding:"required"`
	Content string `json:"content" binding:"required,max=4000"`
}

// ChatHistoryQuery holds the SQL-side filters for chat history
type ChatHistoryQuery struct {
	CaseID     string `form:"case_id"`
	ChatRoomID string `form:"chat_room_id"`
	Search     string `form:"search"`
	UnreadOnly bool   `form:"unread_only"`
	Limit      int    `form:"limit,default=50"`
	Offset     int    `form:"offset,default=0"`
}
