package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"sns_backend/internal/feature/chats/domain/entity"
	userentity "sns_backend/internal/feature/users/domain/entity"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/platform/uow"
	"sns_backend/internal/shared/apperror"
)

const maxMessageLength = 500

// ChatRepository abstracts the persistence layer for chats.
// Following Go convention, the consumer (usecase) defines the interface.
type ChatRepository interface {
	pagination.Finder[entity.Chat]

	// Create stores the chat and links its users. A user id with no row is ErrUnknownMember.
	Create(ctx context.Context, c *entity.Chat) error
	// FindByID returns ErrChatNotFound when no row matches.
	FindByID(ctx context.Context, id uint) (*entity.Chat, error)
	Exists(ctx context.Context, id uint) (bool, error)
	IsMember(ctx context.Context, chatID, userID uint) (bool, error)
}

// MessageRepository abstracts the persistence layer for messages.
type MessageRepository interface {
	pagination.Finder[entity.Message]

	Create(ctx context.Context, m *entity.Message) error
	// FindByID loads the message with its author.
	FindByID(ctx context.Context, id uint) (*entity.Message, error)
}

// Publisher fans a payload out to the subscribers of a chat.
type Publisher interface {
	Publish(ctx context.Context, chatID uint, payload []byte) error
}

// Paginator runs a pagination request against a finder.
type Paginator[T any] interface {
	Paginate(ctx context.Context, req pagination.Request, finder pagination.Finder[T], fixed pagination.Options, path string) (pagination.Page[T], error)
}

type chatsUsecase struct {
	chats     ChatRepository
	messages  MessageRepository
	publisher Publisher

	chatPages    Paginator[entity.Chat]
	messagePages Paginator[entity.Message]
}

// NewChatsUsecase creates the chats usecase.
func NewChatsUsecase(
	chats ChatRepository,
	messages MessageRepository,
	publisher Publisher,
	chatPages Paginator[entity.Chat],
	messagePages Paginator[entity.Message],
) *chatsUsecase {
	return &chatsUsecase{
		chats:        chats,
		messages:     messages,
		publisher:    publisher,
		chatPages:    chatPages,
		messagePages: messagePages,
	}
}

// CreateChat opens a chat between creatorID and userIDs. Duplicate ids are collapsed.
func (u *chatsUsecase) CreateChat(ctx context.Context, creatorID uint, userIDs []uint) (*entity.Chat, error) {
	ids := append([]uint{creatorID}, userIDs...)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) < 2 {
		return nil, apperror.Validation("a chat needs at least one other user")
	}

	chat := &entity.Chat{}
	for _, id := range ids {
		chat.Users = append(chat.Users, userentity.User{ID: id})
	}
	if err := u.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return u.chats.FindByID(ctx, chat.ID)
}

// Exists reports whether chatID names a chat.
func (u *chatsUsecase) Exists(ctx context.Context, chatID uint) (bool, error) {
	return u.chats.Exists(ctx, chatID)
}

// Join checks that userID may read and write chatID.
func (u *chatsUsecase) Join(ctx context.Context, chatID, userID uint) error {
	ok, err := u.chats.Exists(ctx, chatID)
	if err != nil {
		return fmt.Errorf("check chat: %w", err)
	}
	if !ok {
		return ErrChatNotFound
	}
	member, err := u.chats.IsMember(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return ErrNotChatMember
	}
	return nil
}

// PaginateChats lists chats with their users.
func (u *chatsUsecase) PaginateChats(ctx context.Context, req pagination.Request) (pagination.Page[entity.Chat], error) {
	return u.chatPages.Paginate(ctx, req, u.chats, pagination.Options{Relations: []string{"Users"}}, "chats")
}

// CreateMessage stores a message from authorID and publishes it once the surrounding unit of work commits.
func (u *chatsUsecase) CreateMessage(ctx context.Context, chatID, authorID uint, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > maxMessageLength {
		return nil, apperror.Validation(fmt.Sprintf("text must be between 1 and %d characters", maxMessageLength))
	}
	if err := u.Join(ctx, chatID, authorID); err != nil {
		return nil, err
	}

	msg := &entity.Message{ChatID: chatID, AuthorID: authorID, Text: text}
	if err := u.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	saved, err := u.messages.FindByID(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("reload message: %w", err)
	}

	payload, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	uow.AfterCommit(ctx, func() {
		if err := u.publisher.Publish(context.WithoutCancel(ctx), chatID, payload); err != nil {
			slog.Error("failed to publish message", "chat_id", chatID, "message_id", saved.ID, "error", err)
		}
	})
	return saved, nil
}

// PaginateMessages lists the messages of a chat that actorID belongs to.
func (u *chatsUsecase) PaginateMessages(ctx context.Context, actorID, chatID uint, req pagination.Request) (pagination.Page[entity.Message], error) {
	if err := u.Join(ctx, chatID, actorID); err != nil {
		return pagination.Page[entity.Message]{}, err
	}
	fixed := pagination.Options{
		Where: []pagination.Clause{{
			Field:  "chatId",
			Op:     pagination.OpEqual,
			Values: []string{strconv.FormatUint(uint64(chatID), 10)},
		}},
		Relations: []string{"Author"},
	}
	return u.messagePages.Paginate(ctx, req, u.messages, fixed, fmt.Sprintf("chats/%d/messages", chatID))
}
