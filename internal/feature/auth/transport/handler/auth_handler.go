// Package handler provides the HTTP handlers for the auth feature.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/feature/auth/transport/http/dto"
	"sns_backend/internal/feature/auth/usecase"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/shared/apperror"
)

// AuthUsecase defines the authentication operations.
// Following Go convention, the consumer (handler) defines the interface, not the provider (usecase).
type AuthUsecase interface {
	// LoginWithEmail checks the credentials and issues a token pair.
	LoginWithEmail(ctx context.Context, email, password string) (usecase.TokenPair, error)
	// RegisterWithEmail creates an account and issues a token pair.
	RegisterWithEmail(ctx context.Context, name, email, password string) (usecase.TokenPair, error)
	// RotateToken exchanges a refresh token for a new access or refresh token.
	RotateToken(ctx context.Context, token string, wantRefresh bool) (string, error)
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginEmail handles POST /auth/login/email.
// The credentials come in a Basic authorization header.
func (h *AuthHandler) LoginEmail(c *gin.Context) {
	raw, err := jwtmw.ExtractToken(c.GetHeader("Authorization"), jwtmw.SchemeBasic)
	if err != nil {
		_ = c.Error(apperror.Unauthorized("malformed authorization header", err))
		return
	}
	email, password, err := jwtmw.DecodeBasic(raw)
	if err != nil {
		_ = c.Error(apperror.Unauthorized("malformed authorization header", err))
		return
	}

	pair, err := h.auth.LoginWithEmail(c.Request.Context(), email, password)
	if err != nil {
		// The actual cause is not exposed, to prevent user enumeration
		slog.Warn("login failed", "error", err, "email", email, "remote_addr", c.ClientIP())
		_ = c.Error(err)
		return
	}
	slog.Info("user login successful", "email", email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, pair)
}

// RegisterEmail handles POST /auth/register/email.
func (h *AuthHandler) RegisterEmail(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		_ = c.Error(apperror.Validation("invalid request", err))
		return
	}

	pair, err := h.auth.RegisterWithEmail(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		slog.Warn("register failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		_ = c.Error(err)
		return
	}
	slog.Info("user register successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, pair)
}

// RotateAccess handles POST /auth/token/access. It runs behind the refresh guard.
func (h *AuthHandler) RotateAccess(c *gin.Context) {
	token, ok := h.rotate(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.AccessTokenRes{AccessToken: token})
}

// RotateRefresh handles POST /auth/token/refresh. It runs behind the refresh guard.
func (h *AuthHandler) RotateRefresh(c *gin.Context) {
	token, ok := h.rotate(c, true)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.RefreshTokenRes{RefreshToken: token})
}

func (h *AuthHandler) rotate(c *gin.Context, wantRefresh bool) (string, bool) {
	subject, ok := jwtmw.SubjectFromContext(c.Request.Context())
	if !ok {
		_ = c.Error(apperror.Unauthorized("missing bearer token"))
		return "", false
	}
	token, err := h.auth.RotateToken(c.Request.Context(), subject.Token, wantRefresh)
	if err != nil {
		_ = c.Error(err)
		return "", false
	}
	return token, true
}
