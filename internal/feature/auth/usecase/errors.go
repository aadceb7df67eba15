// Package usecase implements the business logic for the auth feature.
package usecase

import (
	"errors"

	"sns_backend/internal/shared/apperror"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")

	// ErrRefreshTokenRequired is the cause when rotation is attempted with an access token.
	// Clients only see the ErrInvalidToken message.
	ErrRefreshTokenRequired = errors.New("token rotation requires a refresh token")

	// ErrInvalidToken is returned for a token that fails verification.
	ErrInvalidToken = apperror.Unauthorized("invalid token")
)
