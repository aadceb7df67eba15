// Package adapters provides the repository implementations for the chats feature.
package adapters

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"sns_backend/internal/feature/chats/domain/entity"
	"sns_backend/internal/feature/chats/usecase"
	userentity "sns_backend/internal/feature/users/domain/entity"
	"sns_backend/internal/platform/db"
	"sns_backend/internal/platform/pagination"
)

// chatGorm is the gorm implementation of usecase.ChatRepository.
type chatGorm struct {
	*db.Repository[entity.Chat]
}

// Compile-time check that chatGorm implements ChatRepository.
var _ usecase.ChatRepository = (*chatGorm)(nil)

// NewChatGorm creates a chat repository on conn.
func NewChatGorm(conn *gorm.DB) *chatGorm {
	return &chatGorm{Repository: db.NewRepository[entity.Chat](conn)}
}

// Create inserts the chat and its chat_users rows. The users themselves are never written.
func (r *chatGorm) Create(ctx context.Context, c *entity.Chat) error {
	ids := make([]uint, 0, len(c.Users))
	for _, u := range c.Users {
		ids = append(ids, u.ID)
	}

	var n int64
	if err := r.Conn(ctx).Model(&userentity.User{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return usecase.ErrUnknownMember
	}
	return r.Conn(ctx).Omit("Users.*").Create(c).Error
}

// FindByID loads the chat with its users.
func (r *chatGorm) FindByID(ctx context.Context, id uint) (*entity.Chat, error) {
	c, err := r.Repository.FindByID(ctx, id, "Users")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrChatNotFound
	}
	return c, err
}

func (r *chatGorm) Exists(ctx context.Context, id uint) (bool, error) {
	return r.Repository.Exists(ctx, pagination.Clause{
		Field:  pagination.IDField,
		Op:     pagination.OpEqual,
		Values: []string{strconv.FormatUint(uint64(id), 10)},
	})
}

func (r *chatGorm) IsMember(ctx context.Context, chatID, userID uint) (bool, error) {
	var n int64
	err := r.Conn(ctx).Table("chat_users").Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&n).Error
	return n > 0, err
}

// messageGorm is the gorm implementation of usecase.MessageRepository.
type messageGorm struct {
	*db.Repository[entity.Message]
}

var _ usecase.MessageRepository = (*messageGorm)(nil)

// NewMessageGorm creates a message repository on conn.
func NewMessageGorm(conn *gorm.DB) *messageGorm {
	return &messageGorm{Repository: db.NewRepository[entity.Message](conn)}
}

// FindByID loads the message with its author.
func (r *messageGorm) FindByID(ctx context.Context, id uint) (*entity.Message, error) {
	return r.Repository.FindByID(ctx, id, "Author")
}
