package rtdb

import (
	"fmt"
)

// Store paths

// RoomPath returns the root path of a chat room
func RoomPath(roomID string) string {
	return "chats/" + roomID
}

// MessagesPath returns the path of a room's message collection
func MessagesPath(roomID string) string {
	return "chats/" + roomID + "/messages"
}

// MessagePath returns the path of a single message
func MessagePath(roomID, messageID string) string {
	return "chats/" + roomID + "/messages/" + messageID
}

// MetadataPath returns the path of a room's metadata record
func MetadataPath(roomID string) string {
	return "chats/" + roomID + "/metadata"
}

// NotificationPath returns the path of a user notification entry
func NotificationPath(uid, notificationID string) string {
	return "notifications/" + uid + "/" + notificationID
}

// UserPath returns the path of a user profile record
func UserPath(uid string) string {
	return "users/" + uid
}

// MessageRecord is a chat message as stored in the real-time store.
// Timestamps are epoch milliseconds; SentAt may be zero for records
// written by old clients, in which case CreatedAt applies.
type MessageRecord struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
	SentAt      int64  `json:"sentAt,omitempty"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
	IsRead      bool   `json:"isRead"`
	ReadAt      int64  `json:"readAt,omitempty"`
}

// EffectiveTime returns the timestamp used for ordering: sentAt when
// present, otherwise createdAt, otherwise zero.
func (m MessageRecord) EffectiveTime() int64 {
	if m.SentAt > 0 {
		return m.SentAt
	}
	return m.CreatedAt
}

// CaseRef links a room to one of the cases discussed in it
type CaseRef struct {
	CaseID          string `json:"caseId"`
	ReferenceNumber string `json:"referenceNumber"`
	AssignedAt      int64  `json:"assignedAt"`
}

// RoomMetadata is the metadata record of a chat room
type RoomMetadata struct {
	CaseRefs      []CaseRef `json:"caseRefs,omitempty"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt int64     `json:"lastMessageAt,omitempty"`
}

// HasCase reports whether the metadata already references the given case
func (m RoomMetadata) HasCase(caseID string) bool {
	for _, ref := range m.CaseRefs {
		if ref.CaseID == caseID {
			return true
		}
	}
	return false
}

// UserProfile is the user record kept in the real-time store so that chat
// clients can resolve display names and roles without touching the API.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// DecodeMessages parses a room's message collection into typed records.
// Records with a missing sender are rejected: they indicate a foreign
// writer or corruption, and copying them forward would spread the damage.
func DecodeMessages(snap Snapshot) (map[string]MessageRecord, error) {
	if !snap.Exists() {
		return map[string]MessageRecord{}, nil
	}
	messages := make(map[string]MessageRecord)
	if err := snap.Decode(&messages); err != nil {
		return nil, err
	}
	for id, msg := range messages {
		if msg.SenderID == "" {
			return nil, fmt.Errorf("rtdb: message %s has no sender", id)
		}
	}
	return messages, nil
}

// DecodeMetadata parses a room metadata snapshot. A missing snapshot
// decodes to empty metadata.
func DecodeMetadata(snap Snapshot) (RoomMetadata, error) {
	var meta RoomMetadata
	if !snap.Exists() {
		return meta, nil
	}
	if err := snap.Decode(&meta); err != nil {
		return RoomMetadata{}, err
	}
	return meta, nil
}
