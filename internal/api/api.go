// Package api holds the HTTP handlers. Handlers translate between the
// wire and the service layer; errors are attached to the gin context and
// rendered by the shared error middleware.
package api

import (
	stderrors "errors"

	"immigration-case-portal/backend/internal/chat"
	"immigration-case-portal/backend/internal/service"
	"immigration-case-portal/backend/pkg/errors"
	"immigration-case-portal/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// caller builds the chat identity from the request claims
func caller(c *gin.Context) (chat.Caller, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return chat.Caller{}, false
	}
	return chat.Caller{UserID: claims.UserID, ExternalUID: claims.ExternalUID}, true
}

// serviceError maps domain errors onto HTTP error codes
func serviceError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, service.ErrUserAlreadyExists):
		return errors.NewConflictError("USER_EXISTS", err.Error())
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return errors.NewUnauthorizedError("INVALID_CREDENTIALS", err.Error())
	case stderrors.Is(err, service.ErrInvalidRole),
		stderrors.Is(err, service.ErrInvalidPriority),
		stderrors.Is(err, service.ErrAppointmentInPast),
		stderrors.Is(err, chat.ErrInvalidMessageBatch):
		return errors.NewBadRequestError("VALIDATION_FAILED", err.Error())
	case stderrors.Is(err, service.ErrForbiddenCase):
		return errors.NewForbiddenError("FORBIDDEN", err.Error())
	case stderrors.Is(err, service.ErrInvalidTransition),
		stderrors.Is(err, service.ErrCaseAlreadyAssigned),
		stderrors.Is(err, service.ErrAssigneeNotAgent),
		stderrors.Is(err, service.ErrDocumentNotPending),
		stderrors.Is(err, service.ErrAppointmentFinalized),
		stderrors.Is(err, service.ErrCaseUnassigned),
		stderrors.Is(err, chat.ErrNoAgentAssigned),
		stderrors.Is(err, chat.ErrNotParticipant),
		stderrors.Is(err, chat.ErrNoExternalIdentity):
		return errors.NewConflictError("CONFLICT", err.Error())
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.NewNotFoundError("NOT_FOUND", "resource not found")
	default:
		return errors.FromError(err)
	}
}
