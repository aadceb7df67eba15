// Package handler provides the HTTP handlers for the posts feature.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/feature/posts/domain/entity"
	"sns_backend/internal/feature/posts/transport/http/dto"
	"sns_backend/internal/feature/posts/usecase"
	"sns_backend/internal/platform/http/params"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/shared/apperror"
)

// defaultRandomPosts is how many posts POST /posts/random creates without a count.
const defaultRandomPosts = 100

// PostsUsecase defines the post operations the handler needs.
// Following Go convention, the consumer (handler) defines the interface.
type PostsUsecase interface {
	Create(ctx context.Context, authorID uint, in usecase.CreatePostInput) (*entity.Post, error)
	FindOne(ctx context.Context, id uint) (*entity.Post, error)
	Update(ctx context.Context, actorID, id uint, in usecase.UpdatePostInput) (*entity.Post, error)
	Remove(ctx context.Context, actorID, id uint) error
	Paginate(ctx context.Context, req pagination.Request) (pagination.Page[entity.Post], error)
	GenerateRandom(ctx context.Context, authorID uint, n int) (int, error)
}

// PostsHandler handles HTTP requests for posts.
type PostsHandler struct {
	uc     PostsUsecase
	limits pagination.Limits
}

// NewPostsHandler creates a PostsHandler.
func NewPostsHandler(uc PostsUsecase, limits pagination.Limits) *PostsHandler {
	return &PostsHandler{uc: uc, limits: limits}
}

// List handles GET /posts.
func (h *PostsHandler) List(c *gin.Context) {
	req, err := h.limits.Parse(c.Request.URL.RawQuery)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.uc.Paginate(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /posts/:id.
func (h *PostsHandler) Get(c *gin.Context) {
	id, err := params.ID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	post, err := h.uc.FindOne(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Create handles POST /posts. It runs inside the request transaction.
func (h *PostsHandler) Create(c *gin.Context) {
	authorID, ok := caller(c)
	if !ok {
		return
	}
	var req dto.CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid create post request", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	post, err := h.uc.Create(c.Request.Context(), authorID, usecase.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Images:  req.Images,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Update handles PATCH /posts/:id.
func (h *PostsHandler) Update(c *gin.Context) {
	actorID, ok := caller(c)
	if !ok {
		return
	}
	id, err := params.ID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.UpdatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid update post request", "error", err, "remote_addr", c.ClientIP())
		_ = c.Error(apperror.Validation("invalid request", err))
		return
	}

	post, err := h.uc.Update(c.Request.Context(), actorID, id, usecase.UpdatePostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /posts/:id.
func (h *PostsHandler) Delete(c *gin.Context) {
	actorID, ok := caller(c)
	if !ok {
		return
	}
	id, err := params.ID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.uc.Remove(c.Request.Context(), actorID, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateRandom handles POST /posts/random. It runs inside the request transaction.
func (h *PostsHandler) GenerateRandom(c *gin.Context) {
	authorID, ok := caller(c)
	if !ok {
		return
	}
	var req dto.RandomPostsReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	if req.Count == 0 {
		req.Count = defaultRandomPosts
	}

	n, err := h.uc.GenerateRandom(c.Request.Context(), authorID, req.Count)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.RandomPostsRes{Created: n})
}

// caller returns the user id the access guard attached.
func caller(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		_ = c.Error(apperror.Unauthorized("authentication required"))
	}
	return id, ok
}
