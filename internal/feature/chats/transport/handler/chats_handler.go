// Package handler provides the HTTP and websocket handlers for the chats feature.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/feature/chats/domain/entity"
	"sns_backend/internal/feature/chats/transport/http/dto"
	"sns_backend/internal/platform/http/params"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/shared/apperror"
)

// ChatsUsecase defines the chat operations the handlers need.
// Following Go convention, the consumer (handler) defines the interface.
type ChatsUsecase interface {
	CreateChat(ctx context.Context, creatorID uint, userIDs []uint) (*entity.Chat, error)
	Join(ctx context.Context, chatID, userID uint) error
	PaginateChats(ctx context.Context, req pagination.Request) (pagination.Page[entity.Chat], error)
	CreateMessage(ctx context.Context, chatID, authorID uint, text string) (*entity.Message, error)
	PaginateMessages(ctx context.Context, actorID, chatID uint, req pagination.Request) (pagination.Page[entity.Message], error)
}

// ChatsHandler handles the REST side of chats.
type ChatsHandler struct {
	uc     ChatsUsecase
	limits pagination.Limits
}

// NewChatsHandler creates a ChatsHandler.
func NewChatsHandler(uc ChatsUsecase, limits pagination.Limits) *ChatsHandler {
	return &ChatsHandler{uc: uc, limits: limits}
}

// Create handles POST /chats.
func (h *ChatsHandler) Create(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req dto.CreateChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid create chat request", "error", err, "remote_addr", c.ClientIP())
		_ = c.Error(apperror.Validation("invalid request", err))
		return
	}

	chat, err := h.uc.CreateChat(c.Request.Context(), userID, req.UserIDs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// List handles GET /chats.
func (h *ChatsHandler) List(c *gin.Context) {
	req, err := h.limits.Parse(c.Request.URL.RawQuery)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.uc.PaginateChats(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListMessages handles GET /chats/:id/messages.
func (h *ChatsHandler) ListMessages(c *gin.Context) {
	userID, chatID, ok := target(c)
	if !ok {
		return
	}
	req, err := h.limits.Parse(c.Request.URL.RawQuery)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.uc.PaginateMessages(c.Request.Context(), userID, chatID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateMessage handles POST /chats/:id/messages. It runs inside the request transaction.
func (h *ChatsHandler) CreateMessage(c *gin.Context) {
	userID, chatID, ok := target(c)
	if !ok {
		return
	}
	var req dto.CreateMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := h.uc.CreateMessage(c.Request.Context(), chatID, userID, req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// caller returns the user id the access guard attached.
func caller(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		_ = c.Error(apperror.Unauthorized("authentication required"))
	}
	return id, ok
}

// target returns the caller and the chat addressed by the :id route parameter.
func target(c *gin.Context) (userID, chatID uint, ok bool) {
	userID, ok = caller(c)
	if !ok {
		return 0, 0, false
	}
	chatID, err := params.ID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return 0, 0, false
	}
	return userID, chatID, true
}
