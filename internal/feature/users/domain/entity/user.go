// Package entity defines the domain entities for the users feature.
package entity

import "time"

// Role is the authorization level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey" json:"id"`

	// Name is the public nickname. It must be unique across all users.
	Name string `gorm:"uniqueIndex;size:20;not null" json:"name"`

	// Email is used for authentication. It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`

	// Password is the bcrypt digest. It is never serialized.
	Password string `gorm:"size:255;not null" json:"-"`

	Role Role `gorm:"size:16;not null;default:user" json:"role"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetID returns the primary key.
func (u User) GetID() uint { return u.ID }
