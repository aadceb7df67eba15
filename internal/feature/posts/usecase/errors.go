// Package usecase implements the business logic for the posts feature.
package usecase

import "sns_backend/internal/shared/apperror"

var (
	// ErrPostNotFound is returned when no post matches the given id.
	ErrPostNotFound = apperror.NotFound("post not found")

	// ErrNotPostAuthor is returned when a caller modifies a post written by someone else.
	ErrNotPostAuthor = apperror.Forbidden("only the author can modify this post")

	// ErrImageNotFound is returned when an uploaded image is not in the temp directory.
	ErrImageNotFound = apperror.Validation("image file does not exist")
)
