// Package entity defines the domain entities for the chats feature.
package entity

import (
	"time"

	userentity "sns_backend/internal/feature/users/domain/entity"
)

// Chat is a conversation between a fixed set of users.
type Chat struct {
	ID    uint              `gorm:"primaryKey" json:"id"`
	Users []userentity.User `gorm:"many2many:chat_users" json:"users,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetID returns the primary key.
func (c Chat) GetID() uint { return c.ID }

// Message is one line of text sent to a chat.
type Message struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	ChatID uint  `gorm:"not null;index" json:"chatId"`
	Chat   *Chat `gorm:"foreignKey:ChatID" json:"-"`

	AuthorID uint             `gorm:"not null;index" json:"authorId"`
	Author   *userentity.User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Text string `gorm:"size:500;not null" json:"text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetID returns the primary key.
func (m Message) GetID() uint { return m.ID }
