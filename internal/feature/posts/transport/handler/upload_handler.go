package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/feature/posts/transport/http/dto"
	"sns_backend/internal/shared/apperror"
)

const (
	// MaxImageSize is the largest accepted upload, in bytes.
	MaxImageSize = 5 << 20

	imageFormField = "image"
)

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// TempStorage stores an upload until a post claims it.
type TempStorage interface {
	SaveTemp(ctx context.Context, src io.Reader, ext string) (string, error)
}

// UploadHandler handles image uploads.
type UploadHandler struct {
	storage TempStorage
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(storage TempStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadImage handles POST /common/image.
// The multipart field "image" must be a jpg, jpeg or png of at most MaxImageSize bytes.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageSize+1<<20)

	file, err := c.FormFile(imageFormField)
	if err != nil {
		_ = c.Error(apperror.Validation("image file is required", err))
		return
	}
	if file.Size > MaxImageSize {
		_ = c.Error(apperror.Validation("image must be at most 5MB"))
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		_ = c.Error(apperror.Validation("only jpg, jpeg and png files are allowed"))
		return
	}

	src, err := file.Open()
	if err != nil {
		_ = c.Error(apperror.Internal("failed to read upload", err))
		return
	}
	defer func() { _ = src.Close() }()

	name, err := h.storage.SaveTemp(c.Request.Context(), src, ext)
	if err != nil {
		_ = c.Error(apperror.Internal("failed to store upload", err))
		return
	}
	slog.Info("image uploaded", "file", name, "size", file.Size, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.UploadImageRes{FileName: name})
}
