// Package adapters provides the repository and storage implementations for the posts feature.
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sns_backend/internal/feature/posts/domain/entity"
	"sns_backend/internal/feature/posts/usecase"
	"sns_backend/internal/platform/db"
)

// postGorm is the gorm implementation of usecase.PostRepository.
type postGorm struct {
	*db.Repository[entity.Post]
}

// Compile-time check that postGorm implements PostRepository.
var _ usecase.PostRepository = (*postGorm)(nil)

// NewPostGorm creates a post repository on conn.
func NewPostGorm(conn *gorm.DB) *postGorm {
	return &postGorm{Repository: db.NewRepository[entity.Post](conn)}
}

// FindByID loads the post with its author and images.
func (r *postGorm) FindByID(ctx context.Context, id uint) (*entity.Post, error) {
	p, err := r.Repository.FindByID(ctx, id, "Author", "Images")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrPostNotFound
	}
	return p, err
}

// Save updates the post's own columns without touching its author or images.
func (r *postGorm) Save(ctx context.Context, p *entity.Post) error {
	return r.Conn(ctx).Omit(clause.Associations).Save(p).Error
}

// Remove deletes the post together with its images.
func (r *postGorm) Remove(ctx context.Context, id uint) error {
	res := r.Conn(ctx).Select("Images").Delete(&entity.Post{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrPostNotFound
	}
	return nil
}

// imageGorm is the gorm implementation of usecase.ImageRepository.
type imageGorm struct {
	*db.Repository[entity.Image]
}

var _ usecase.ImageRepository = (*imageGorm)(nil)

// NewImageGorm creates an image repository on conn.
func NewImageGorm(conn *gorm.DB) *imageGorm {
	return &imageGorm{Repository: db.NewRepository[entity.Image](conn)}
}
