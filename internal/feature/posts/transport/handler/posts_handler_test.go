package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sns_backend/internal/feature/posts/domain/entity"
	"sns_backend/internal/feature/posts/transport/handler"
	"sns_backend/internal/feature/posts/usecase"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/shared/apperror"
)

// mockPostsUsecase is a function-field mock of handler.PostsUsecase.
type mockPostsUsecase struct {
	CreateFunc         func(ctx context.Context, authorID uint, in usecase.CreatePostInput) (*entity.Post, error)
	FindOneFunc        func(ctx context.Context, id uint) (*entity.Post, error)
	UpdateFunc         func(ctx context.Context, actorID, id uint, in usecase.UpdatePostInput) (*entity.Post, error)
	RemoveFunc         func(ctx context.Context, actorID, id uint) error
	PaginateFunc       func(ctx context.Context, req pagination.Request) (pagination.Page[entity.Post], error)
	GenerateRandomFunc func(ctx context.Context, authorID uint, n int) (int, error)
}

func (m *mockPostsUsecase) Create(ctx context.Context, authorID uint, in usecase.CreatePostInput) (*entity.Post, error) {
	return m.CreateFunc(ctx, authorID, in)
}

func (m *mockPostsUsecase) FindOne(ctx context.Context, id uint) (*entity.Post, error) {
	return m.FindOneFunc(ctx, id)
}

func (m *mockPostsUsecase) Update(ctx context.Context, actorID, id uint, in usecase.UpdatePostInput) (*entity.Post, error) {
	return m.UpdateFunc(ctx, actorID, id, in)
}

func (m *mockPostsUsecase) Remove(ctx context.Context, actorID, id uint) error {
	return m.RemoveFunc(ctx, actorID, id)
}

func (m *mockPostsUsecase) Paginate(ctx context.Context, req pagination.Request) (pagination.Page[entity.Post], error) {
	return m.PaginateFunc(ctx, req)
}

func (m *mockPostsUsecase) GenerateRandom(ctx context.Context, authorID uint, n int) (int, error) {
	return m.GenerateRandomFunc(ctx, authorID, n)
}

func authAs(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(jwtmw.ContextUserID, id)
		c.Next()
	}
}

func setupRouter(uc handler.PostsUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewPostsHandler(uc, pagination.Limits{DefaultTake: 20, MaxTake: 100})

	r := gin.New()
	r.Use(apperror.Middleware())
	r.GET("/posts", h.List)
	r.GET("/posts/:id", h.Get)
	authed := r.Group("/posts", authAs(1))
	authed.POST("", h.Create)
	authed.POST("/random", h.GenerateRandom)
	authed.PATCH("/:id", h.Update)
	authed.DELETE("/:id", h.Delete)
	return r
}

func do(r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rd)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestPostsHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		create         func(ctx context.Context, authorID uint, in usecase.CreatePostInput) (*entity.Post, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"title":"t","content":"c","images":["a.png"]}`,
			create: func(ctx context.Context, authorID uint, in usecase.CreatePostInput) (*entity.Post, error) {
				assert.Equal(t, uint(1), authorID)
				assert.Equal(t, []string{"a.png"}, in.Images)
				return &entity.Post{ID: 3, Title: in.Title, Content: in.Content, AuthorID: authorID}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			body:           `{"content":"c"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing image file",
			body: `{"title":"t","content":"c","images":["gone.png"]}`,
			create: func(ctx context.Context, authorID uint, in usecase.CreatePostInput) (*entity.Post, error) {
				return nil, usecase.ErrImageNotFound
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(setupRouter(&mockPostsUsecase{CreateFunc: tt.create}), http.MethodPost, "/posts", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestPostsHandler_Get(t *testing.T) {
	uc := &mockPostsUsecase{
		FindOneFunc: func(ctx context.Context, id uint) (*entity.Post, error) {
			if id != 3 {
				return nil, usecase.ErrPostNotFound
			}
			return &entity.Post{ID: 3, Title: "t"}, nil
		},
	}
	r := setupRouter(uc)

	w := do(r, http.MethodGet, "/posts/3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"t"`)

	w = do(r, http.MethodGet, "/posts/4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"post not found"}`, w.Body.String())
}

func TestPostsHandler_List(t *testing.T) {
	uc := &mockPostsUsecase{
		PaginateFunc: func(ctx context.Context, req pagination.Request) (pagination.Page[entity.Post], error) {
			assert.Equal(t, 0, req.Page)
			v, _ := req.Params.Get("order__createdAt")
			assert.Equal(t, "DESC", v)
			return pagination.Page[entity.Post]{Mode: pagination.CursorMode}, nil
		},
	}

	w := do(setupRouter(uc), http.MethodGet, "/posts?order__createdAt=DESC", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"cursor":{},"count":0}`, w.Body.String())
}

func TestPostsHandler_UpdateAndDelete(t *testing.T) {
	uc := &mockPostsUsecase{
		UpdateFunc: func(ctx context.Context, actorID, id uint, in usecase.UpdatePostInput) (*entity.Post, error) {
			switch id {
			case 404:
				return nil, usecase.ErrPostNotFound
			case 403:
				return nil, usecase.ErrNotPostAuthor
			}
			require.NotNil(t, in.Title)
			assert.Nil(t, in.Content)
			return &entity.Post{ID: id, Title: *in.Title}, nil
		},
		RemoveFunc: func(ctx context.Context, actorID, id uint) error {
			if id == 404 {
				return usecase.ErrPostNotFound
			}
			return nil
		},
	}
	r := setupRouter(uc)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPatch, "/posts/1", `{"title":"new"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPatch, "/posts/404", `{"title":"new"}`).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPatch, "/posts/403", `{"title":"new"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/posts/1", `{"title":""}`).Code)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/posts/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/posts/404", "").Code)
}

func TestPostsHandler_GenerateRandom(t *testing.T) {
	var asked []int
	uc := &mockPostsUsecase{
		GenerateRandomFunc: func(ctx context.Context, authorID uint, n int) (int, error) {
			asked = append(asked, n)
			return n, nil
		},
	}
	r := setupRouter(uc)

	w := do(r, http.MethodPost, "/posts/random", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"created":100}`, w.Body.String())

	w = do(r, http.MethodPost, "/posts/random", `{"count":5}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []int{100, 5}, asked)
}

// memoryStorage records what was uploaded.
type memoryStorage struct {
	data []byte
	ext  string
}

func (m *memoryStorage) SaveTemp(ctx context.Context, src io.Reader, ext string) (string, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	m.data, m.ext = b, ext
	return "generated" + ext, nil
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if filename != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadHandler_UploadImage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		field          string
		filename       string
		size           int
		expectedStatus int
		expectedBody   string
	}{
		{"png", "image", "cat.PNG", 10, http.StatusCreated, `{"fileName":"generated.png"}`},
		{"jpeg", "image", "cat.jpeg", 10, http.StatusCreated, `{"fileName":"generated.jpeg"}`},
		{"gif rejected", "image", "cat.gif", 10, http.StatusBadRequest, `{"error":"only jpg, jpeg and png files are allowed"}`},
		{"wrong field", "file", "cat.png", 10, http.StatusBadRequest, `{"error":"image file is required"}`},
		{"too large", "image", "cat.png", handler.MaxImageSize + 1, http.StatusBadRequest, `{"error":"image must be at most 5MB"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &memoryStorage{}
			r := gin.New()
			r.Use(apperror.Middleware())
			r.POST("/common/image", handler.NewUploadHandler(storage).UploadImage)

			body, contentType := multipartBody(t, tt.field, tt.filename, bytes.Repeat([]byte{'x'}, tt.size))
			req := httptest.NewRequest(http.MethodPost, "/common/image", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			if tt.expectedStatus == http.StatusCreated {
				assert.Len(t, storage.data, tt.size)
			}
		})
	}
}
