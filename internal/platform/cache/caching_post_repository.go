// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sns_backend/internal/feature/posts/domain/entity"
	"sns_backend/internal/feature/posts/usecase"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/platform/uow"
)

// CachingPostRepository decorates a PostRepository with a Redis read-through cache for FindByID.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository.
type CachingPostRepository struct {
	inner     usecase.PostRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.PostRepository = (*CachingPostRepository)(nil)

// NewCachingPostRepository decorates a PostRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "posts".
func NewCachingPostRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PostRepository, namespace string) *CachingPostRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "posts"
	}
	return &CachingPostRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Find is not cached.
func (c *CachingPostRepository) Find(ctx context.Context, q pagination.Query) ([]entity.Post, error) {
	return c.inner.Find(ctx, q)
}

// FindAndCount is not cached.
func (c *CachingPostRepository) FindAndCount(ctx context.Context, q pagination.Query) ([]entity.Post, int64, error) {
	return c.inner.FindAndCount(ctx, q)
}

// Create does not touch the cache; a new id has no entry yet.
func (c *CachingPostRepository) Create(ctx context.Context, p *entity.Post) error {
	return c.inner.Create(ctx, p)
}

// FindByID retrieves a post, checking cache first then falling back to the database.
func (c *CachingPostRepository) FindByID(ctx context.Context, id uint) (*entity.Post, error) {
	// Bypass cache if Redis is not configured, or inside a unit of work where reads must see uncommitted writes
	if _, inTx := uow.FromContext(ctx); c.rdb == nil || inTx {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Post
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// Save updates the post and evicts its entry once the change is committed.
func (c *CachingPostRepository) Save(ctx context.Context, p *entity.Post) error {
	if err := c.inner.Save(ctx, p); err != nil {
		return err
	}
	c.evict(ctx, p.ID)
	return nil
}

// Remove deletes the post and evicts its entry once the change is committed.
func (c *CachingPostRepository) Remove(ctx context.Context, id uint) error {
	if err := c.inner.Remove(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

// evict deletes the entry for id after the surrounding unit of work commits, or right away without one.
func (c *CachingPostRepository) evict(ctx context.Context, id uint) {
	if c.rdb == nil {
		return
	}
	key := c.cacheKey(id)
	uow.AfterCommit(ctx, func() {
		// The request context may be gone by the time a hook runs
		if err := c.rdb.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			slog.Warn("cache eviction failed", "key", key, "error", err)
		}
	})
}

// cacheKey generates a cache key for one post.
func (c *CachingPostRepository) cacheKey(id uint) string {
	return fmt.Sprintf("%s:%d", safe(c.namespace), id)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
