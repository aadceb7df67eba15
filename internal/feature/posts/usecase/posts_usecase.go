package usecase

import (
	"context"
	"fmt"

	"sns_backend/internal/feature/posts/domain/entity"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/shared/apperror"
)

// PostRepository abstracts the persistence layer for posts.
// Following Go convention, the consumer (usecase) defines the interface.
type PostRepository interface {
	pagination.Finder[entity.Post]

	Create(ctx context.Context, p *entity.Post) error
	// FindByID loads the post with its author and images. It returns ErrPostNotFound when no row matches.
	FindByID(ctx context.Context, id uint) (*entity.Post, error)
	// Save updates the post's own columns. Associations are left untouched.
	Save(ctx context.Context, p *entity.Post) error
	// Remove deletes the post and its images. It returns ErrPostNotFound when no row matches.
	Remove(ctx context.Context, id uint) error
}

// ImageRepository persists image rows.
type ImageRepository interface {
	Create(ctx context.Context, img *entity.Image) error
}

// ImageStorage moves uploaded files out of the temp directory.
type ImageStorage interface {
	// Promote moves the temp file name into the posts directory and returns its public path.
	// A missing temp file is ErrImageNotFound.
	Promote(ctx context.Context, name string) (string, error)
}

// Paginator runs a pagination request against a finder.
type Paginator interface {
	Paginate(ctx context.Context, req pagination.Request, finder pagination.Finder[entity.Post], fixed pagination.Options, path string) (pagination.Page[entity.Post], error)
}

// CreatePostInput is a new post and the temp file names of its images, in display order.
type CreatePostInput struct {
	Title   string
	Content string
	Images  []string
}

// UpdatePostInput carries the fields to change. Nil fields are kept.
type UpdatePostInput struct {
	Title   *string
	Content *string
}

// listRelations are preloaded on every listed post.
var listRelations = []string{"Author", "Images"}

type postsUsecase struct {
	posts     PostRepository
	images    ImageRepository
	storage   ImageStorage
	paginator Paginator
}

// NewPostsUsecase creates the posts usecase.
func NewPostsUsecase(posts PostRepository, images ImageRepository, storage ImageStorage, paginator Paginator) *postsUsecase {
	return &postsUsecase{posts: posts, images: images, storage: storage, paginator: paginator}
}

// Create stores a post and then each of its images.
// Run it inside a unit of work so that a missing image rolls the post back.
func (u *postsUsecase) Create(ctx context.Context, authorID uint, in CreatePostInput) (*entity.Post, error) {
	if in.Title == "" || in.Content == "" {
		return nil, apperror.Validation("title and content are required")
	}

	post := &entity.Post{AuthorID: authorID, Title: in.Title, Content: in.Content}
	if err := u.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	for i, name := range in.Images {
		path, err := u.storage.Promote(ctx, name)
		if err != nil {
			return nil, err
		}
		img := entity.Image{Order: i, Type: entity.ImageTypePost, Path: path, PostID: &post.ID}
		if err := u.images.Create(ctx, &img); err != nil {
			return nil, fmt.Errorf("create image %d: %w", i, err)
		}
		post.Images = append(post.Images, img)
	}
	return post, nil
}

// FindOne returns the post with id.
func (u *postsUsecase) FindOne(ctx context.Context, id uint) (*entity.Post, error) {
	return u.posts.FindByID(ctx, id)
}

// Update changes a post written by actorID.
func (u *postsUsecase) Update(ctx context.Context, actorID, id uint, in UpdatePostInput) (*entity.Post, error) {
	post, err := u.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if err := u.posts.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	return post, nil
}

// Remove deletes a post written by actorID.
func (u *postsUsecase) Remove(ctx context.Context, actorID, id uint) error {
	if _, err := u.owned(ctx, actorID, id); err != nil {
		return err
	}
	return u.posts.Remove(ctx, id)
}

// Paginate lists posts with their author and images.
func (u *postsUsecase) Paginate(ctx context.Context, req pagination.Request) (pagination.Page[entity.Post], error) {
	return u.paginator.Paginate(ctx, req, u.posts, pagination.Options{Relations: listRelations}, "posts")
}

// GenerateRandom seeds n placeholder posts for authorID.
func (u *postsUsecase) GenerateRandom(ctx context.Context, authorID uint, n int) (int, error) {
	if n <= 0 || n > maxRandomPosts {
		return 0, apperror.Validation(fmt.Sprintf("count must be between 1 and %d", maxRandomPosts))
	}
	for i := range n {
		post := &entity.Post{
			AuthorID: authorID,
			Title:    fmt.Sprintf("random post title %d", i),
			Content:  fmt.Sprintf("random post content %d", i),
		}
		if err := u.posts.Create(ctx, post); err != nil {
			return i, fmt.Errorf("create random post %d: %w", i, err)
		}
	}
	return n, nil
}

const maxRandomPosts = 1000

func (u *postsUsecase) owned(ctx context.Context, actorID, id uint) (*entity.Post, error) {
	post, err := u.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, ErrNotPostAuthor
	}
	return post, nil
}
