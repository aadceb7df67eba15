package entity

import "time"

// ImageType tells what an image is attached to.
type ImageType string

const (
	ImageTypePost ImageType = "POST_IMAGE"
	ImageTypeUser ImageType = "USER_IMAGE"
)

// Image is an uploaded file that has been attached to an entity.
type Image struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	Order int       `gorm:"not null;default:0" json:"order"`
	Type  ImageType `gorm:"size:16;not null;default:POST_IMAGE" json:"type"`
	// Path is the public URL path of the file, e.g. /public/posts/<name>.
	Path   string `gorm:"size:255;not null" json:"path"`
	PostID *uint  `gorm:"index" json:"postId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
