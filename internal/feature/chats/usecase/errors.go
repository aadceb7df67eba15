// Package usecase implements the business logic for the chats feature.
package usecase

import "sns_backend/internal/shared/apperror"

var (
	// ErrChatNotFound is returned when no chat matches the given id.
	ErrChatNotFound = apperror.NotFound("chat not found")

	// ErrNotChatMember is returned when a caller acts on a chat it does not belong to.
	ErrNotChatMember = apperror.Forbidden("not a member of this chat")

	// ErrUnknownMember is returned when a new chat names a user that does not exist.
	ErrUnknownMember = apperror.Validation("chat members must be existing users")
)
