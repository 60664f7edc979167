package api

import (
	"net/http"

	"immigration-case-portal/backend/internal/chat"
	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves messaging, the consolidation migration and the
// read-status bridge
type ChatHandler struct {
	chats    *chat.Service
	migrator *chat.Migrator
	readSync *chat.ReadSyncer
}

// NewChatHandler creates the chat handler
func NewChatHandler(chats *chat.Service, migrator *chat.Migrator, readSync *chat.ReadSyncer) *ChatHandler {
	return &ChatHandler{chats: chats, migrator: migrator, readSync: readSync}
}

// MigrateRequest is the body of the migration trigger. Both fields are
// optional: an empty body migrates every assigned case for real.
type MigrateRequest struct {
	CaseID string `json:"caseId"`
	DryRun bool   `json:"dryRun"`
}

// Migrate handles POST /api/chat/migrate. Admin only, enforced by the
// router. The response is always 200 with a per-case breakdown; failures
// of individual cases are part of the report, not of the request.
func (h *ChatHandler) Migrate(c *gin.Context) {
	var req MigrateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
			return
		}
	}

	report, err := h.migrator.Run(c.Request.Context(), chat.MigrateOptions{
		CaseID: req.CaseID,
		DryRun: req.DryRun,
	})
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, report)
}

// MarkReadRequest is the body of the bulk mark-read call
type MarkReadRequest struct {
	MessageIDs []string `json:"messageIds" binding:"required"`
	ChatRoomID string   `json:"chatRoomId"`
}

// MarkRead handles PUT /api/chat/messages/mark-read. Validation happens
// before any store access; ids that are not the caller's unread messages
// are skipped, not errors.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}
	if len(req.MessageIDs) == 0 || len(req.MessageIDs) > chat.MaxMarkReadBatch {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", chat.ErrInvalidMessageBatch.Error()))
		return
	}

	result, err := h.readSync.MarkRead(c.Request.Context(), who, req.MessageIDs, req.ChatRoomID)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      result.Count,
		"messageIds": result.MessageIDs,
		"readAt":     result.ReadAt,
	})
}

// SyncReadRequest is the body of the reverse read-status sync
type SyncReadRequest struct {
	CaseID     string   `json:"caseId" binding:"required"`
	MessageIDs []string `json:"messageIds"`
}

// SyncExternalRead handles PUT /api/chat/messages/sync-firebase-read. It
// pulls read flags the chat client already wrote into the external store
// back into the relational mirror.
func (h *ChatHandler) SyncExternalRead(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	var req SyncReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	result, err := h.readSync.SyncFromExternal(c.Request.Context(), who, req.CaseID, req.MessageIDs)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      result.Count,
		"messageIds": result.ExternalIDs,
		"chatRoomId": result.ChatRoomID,
	})
}

// Send handles POST /api/v1/chat/messages
func (h *ChatHandler) Send(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), who, req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// History handles GET /api/v1/chat/messages
func (h *ChatHandler) History(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	var q models.ChatHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	messages, total, err := h.chats.History(c.Request.Context(), who, q)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "total": total})
}

// UnreadCount handles GET /api/v1/chat/unread-count
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	count, err := h.chats.UnreadCount(c.Request.Context(), who)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
