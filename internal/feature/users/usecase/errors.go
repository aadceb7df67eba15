// Package usecase implements the business logic for the users feature.
package usecase

import "sns_backend/internal/shared/apperror"

var (
	// ErrUserNotFound is returned when no user matches the given id or email.
	ErrUserNotFound = apperror.NotFound("user not found")

	// ErrNameAlreadyExists is returned when the nickname is taken.
	ErrNameAlreadyExists = apperror.Conflict("name already exists")

	// ErrEmailAlreadyExists is returned when the email is taken.
	ErrEmailAlreadyExists = apperror.Conflict("email already exists")

	// ErrUserAlreadyExists is returned when the unique constraint rejects an insert that passed the pre-checks.
	ErrUserAlreadyExists = apperror.Conflict("user already exists")

	// ErrNotAccountOwner is returned when a caller modifies an account other than its own.
	ErrNotAccountOwner = apperror.Forbidden("cannot modify another user's account")
)
