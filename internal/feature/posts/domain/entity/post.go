// Package entity defines the domain entities for the posts feature.
package entity

import (
	"time"

	userentity "sns_backend/internal/feature/users/domain/entity"
)

// Post is a titled piece of content written by one user.
type Post struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Title   string `gorm:"size:100;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	// AuthorID references the user who wrote the post. Only that user may modify it.
	AuthorID uint             `gorm:"not null;index" json:"authorId"`
	Author   *userentity.User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Images []Image `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"images,omitempty"`

	LikeCount    int `gorm:"not null;default:0" json:"likeCount"`
	CommentCount int `gorm:"not null;default:0" json:"commentCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetID returns the primary key.
func (p Post) GetID() uint { return p.ID }
