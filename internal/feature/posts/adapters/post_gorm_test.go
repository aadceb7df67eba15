package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sns_backend/internal/feature/posts/domain/entity"
	"sns_backend/internal/feature/posts/usecase"
	userentity "sns_backend/internal/feature/users/domain/entity"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/platform/uow"
)

// setupTestDB prepares an in-memory SQLite database for the tests.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&userentity.User{}, &entity.Post{}, &entity.Image{}), "failed to migrate table")
	return db
}

func seedAuthor(t *testing.T, db *gorm.DB) *userentity.User {
	t.Helper()

	u := &userentity.User{Name: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func writeTemp(t *testing.T, storage *LocalImageStorage, ext string) string {
	t.Helper()

	name, err := storage.SaveTemp(context.Background(), strings.NewReader("fake image"), ext)
	require.NoError(t, err)
	return name
}

func TestPostGorm_FindByIDPreloads(t *testing.T) {
	db := setupTestDB(t)
	author := seedAuthor(t, db)
	posts := NewPostGorm(db)
	images := NewImageGorm(db)
	ctx := context.Background()

	post := &entity.Post{Title: "t", Content: "c", AuthorID: author.ID}
	require.NoError(t, posts.Create(ctx, post))
	require.NoError(t, images.Create(ctx, &entity.Image{Path: "/public/posts/a.png", PostID: &post.ID, Type: entity.ImageTypePost}))

	got, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Name)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "/public/posts/a.png", got.Images[0].Path)

	_, err = posts.FindByID(ctx, 999)
	assert.ErrorIs(t, err, usecase.ErrPostNotFound)
}

func TestPostGorm_SaveLeavesAssociations(t *testing.T) {
	db := setupTestDB(t)
	author := seedAuthor(t, db)
	posts := NewPostGorm(db)
	ctx := context.Background()

	post := &entity.Post{Title: "t", Content: "c", AuthorID: author.ID}
	require.NoError(t, posts.Create(ctx, post))

	loaded, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	loaded.Title = "changed"
	loaded.Author.Name = "mallory"
	require.NoError(t, posts.Save(ctx, loaded))

	again, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", again.Title)
	assert.Equal(t, "alice", again.Author.Name)
}

func TestPostGorm_RemoveDeletesImages(t *testing.T) {
	db := setupTestDB(t)
	author := seedAuthor(t, db)
	posts := NewPostGorm(db)
	ctx := context.Background()

	post := &entity.Post{Title: "t", Content: "c", AuthorID: author.ID}
	require.NoError(t, posts.Create(ctx, post))
	require.NoError(t, NewImageGorm(db).Create(ctx, &entity.Image{Path: "p", PostID: &post.ID}))

	require.NoError(t, posts.Remove(ctx, post.ID))

	var n int64
	require.NoError(t, db.Model(&entity.Image{}).Count(&n).Error)
	assert.Zero(t, n)

	assert.ErrorIs(t, posts.Remove(ctx, post.ID), usecase.ErrPostNotFound)
}

func TestPostsUsecase_CreateInUnitOfWork(t *testing.T) {
	db := setupTestDB(t)
	author := seedAuthor(t, db)
	root := t.TempDir()
	storage, err := NewLocalImageStorage(root)
	require.NoError(t, err)

	uc := usecase.NewPostsUsecase(NewPostGorm(db), NewImageGorm(db), storage, pagination.NewEngine[entity.Post]("http://localhost:8080"))
	m := uow.NewManager(uow.NewGormStore(db))

	t.Run("commits post and images", func(t *testing.T) {
		name := writeTemp(t, storage, ".png")

		var created *entity.Post
		err := m.Do(context.Background(), func(ctx context.Context) error {
			var err error
			created, err = uc.Create(ctx, author.ID, usecase.CreatePostInput{Title: "t", Content: "c", Images: []string{name}})
			return err
		})
		require.NoError(t, err)

		got, err := uc.FindOne(context.Background(), created.ID)
		require.NoError(t, err)
		require.Len(t, got.Images, 1)
		assert.Equal(t, "/public/posts/"+name, got.Images[0].Path)
		assert.FileExists(t, filepath.Join(root, "posts", name))
		assert.NoFileExists(t, filepath.Join(root, "temp", name))
	})

	t.Run("missing image rolls the post back", func(t *testing.T) {
		var before int64
		require.NoError(t, db.Model(&entity.Post{}).Count(&before).Error)

		err := m.Do(context.Background(), func(ctx context.Context) error {
			_, err := uc.Create(ctx, author.ID, usecase.CreatePostInput{Title: "t", Content: "c", Images: []string{"missing.png"}})
			return err
		})
		assert.ErrorIs(t, err, usecase.ErrImageNotFound)

		var after int64
		require.NoError(t, db.Model(&entity.Post{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})

	t.Run("paginates with relations", func(t *testing.T) {
		req, err := pagination.Limits{DefaultTake: 10, MaxTake: 10}.Parse("")
		require.NoError(t, err)

		page, err := uc.Paginate(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		require.NotNil(t, page.Data[0].Author)
		assert.Equal(t, "alice", page.Data[0].Author.Name)
	})
}

func TestLocalImageStorage_Promote(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalImageStorage(root)
	require.NoError(t, err)

	name := writeTemp(t, storage, ".jpg")
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	path, err := storage.Promote(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, "/public/posts/"+name, path)

	b, err := os.ReadFile(filepath.Join(root, "posts", name))
	require.NoError(t, err)
	assert.Equal(t, "fake image", string(b))

	_, err = storage.Promote(context.Background(), name)
	assert.ErrorIs(t, err, usecase.ErrImageNotFound)

	// Only the base name is used, so a traversal lands on a missing temp file.
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.png"), []byte("x"), 0o644))
	_, err = storage.Promote(context.Background(), "../secret.png")
	assert.ErrorIs(t, err, usecase.ErrImageNotFound)
	assert.FileExists(t, filepath.Join(root, "secret.png"))
}
