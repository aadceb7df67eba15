package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"sns_backend/internal/feature/posts/usecase"
)

const (
	tempDir  = "temp"
	postsDir = "posts"

	// PublicPrefix is the URL path the public directory is served under.
	PublicPrefix = "/public"
)

// LocalImageStorage keeps uploads on the local filesystem under a public directory.
// New uploads land in <root>/temp and move to <root>/posts once attached to a post.
type LocalImageStorage struct {
	root string
}

var _ usecase.ImageStorage = (*LocalImageStorage)(nil)

// NewLocalImageStorage creates the temp and posts directories under root.
func NewLocalImageStorage(root string) (*LocalImageStorage, error) {
	for _, dir := range []string{tempDir, postsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return &LocalImageStorage{root: root}, nil
}

// SaveTemp writes src to the temp directory under a fresh uuid name with ext, and returns the name.
func (s *LocalImageStorage) SaveTemp(ctx context.Context, src io.Reader, ext string) (string, error) {
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.root, tempDir, name))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return name, nil
}

// Promote moves a temp file into the posts directory.
func (s *LocalImageStorage) Promote(ctx context.Context, name string) (string, error) {
	// Only the base name is honored so that a client cannot reach outside the temp directory.
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", usecase.ErrImageNotFound
	}

	src := filepath.Join(s.root, tempDir, name)
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", usecase.ErrImageNotFound
		}
		return "", fmt.Errorf("stat temp file: %w", err)
	}
	if err := os.Rename(src, filepath.Join(s.root, postsDir, name)); err != nil {
		return "", fmt.Errorf("move image: %w", err)
	}
	return path.Join(PublicPrefix, postsDir, name), nil
}
