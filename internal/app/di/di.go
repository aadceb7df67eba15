// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"sns_backend/internal/app/router"
	"sns_backend/internal/config"
	authhandler "sns_backend/internal/feature/auth/transport/handler"
	authusecase "sns_backend/internal/feature/auth/usecase"
	chatsadapters "sns_backend/internal/feature/chats/adapters"
	chatentity "sns_backend/internal/feature/chats/domain/entity"
	chatshandler "sns_backend/internal/feature/chats/transport/handler"
	chatsusecase "sns_backend/internal/feature/chats/usecase"
	postsadapters "sns_backend/internal/feature/posts/adapters"
	postentity "sns_backend/internal/feature/posts/domain/entity"
	postshandler "sns_backend/internal/feature/posts/transport/handler"
	postsusecase "sns_backend/internal/feature/posts/usecase"
	usersadapters "sns_backend/internal/feature/users/adapters"
	userentity "sns_backend/internal/feature/users/domain/entity"
	usershandler "sns_backend/internal/feature/users/transport/handler"
	usersusecase "sns_backend/internal/feature/users/usecase"
	"sns_backend/internal/platform/cache"
	platformhandler "sns_backend/internal/platform/http/handler"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/platform/password"
	"sns_backend/internal/platform/realtime"
	"sns_backend/internal/platform/uow"
	"sns_backend/internal/shared/ratelimiter"
)

// Models lists every entity AutoMigrate manages.
func Models() []any {
	return []any{&userentity.User{}, &postentity.Post{}, &postentity.Image{}, &chatentity.Chat{}, &chatentity.Message{}}
}

// NewBroadcaster returns a Redis-backed broadcaster when Redis is available.
// Otherwise, it falls back to an in-process one, which only reaches clients of this instance.
func NewBroadcaster(rdb *redis.Client) realtime.Broadcaster {
	if rdb != nil {
		return realtime.NewRedisBroadcaster(rdb)
	}
	slog.Warn("Redis unavailable, chat fan-out is limited to this process")
	return realtime.NewMemoryBroadcaster()
}

// NewPostRepository wraps the gorm repository in a Redis read-through cache when Redis is available.
func NewPostRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) postsusecase.PostRepository {
	repo := postsadapters.NewPostGorm(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingPostRepository(rdb, ttl, repo, "posts")
}

// Build wires every layer for cfg. rdb may be nil.
func Build(cfg config.Config, db *gorm.DB, rdb *redis.Client) (router.Deps, error) {
	storage, err := postsadapters.NewLocalImageStorage(cfg.PublicDir)
	if err != nil {
		return router.Deps{}, fmt.Errorf("image storage: %w", err)
	}

	limits := pagination.Limits{DefaultTake: cfg.Pagination.DefaultTake, MaxTake: cfg.Pagination.MaxTake}
	signer := jwtmw.NewSigner(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	transactions := uow.NewManager(uow.NewGormStore(db))
	broadcaster := NewBroadcaster(rdb)

	// Repository
	userRepo := usersadapters.NewUserGorm(db)
	postRepo := NewPostRepository(rdb, db, cfg.PostCacheTTL)
	imageRepo := postsadapters.NewImageGorm(db)
	chatRepo := chatsadapters.NewChatGorm(db)
	messageRepo := chatsadapters.NewMessageGorm(db)

	// Usecase
	usersUC := usersusecase.NewUsersUsecase(userRepo, pagination.NewEngine[userentity.User](cfg.BaseURL))
	authUC := authusecase.NewAuthUsecase(usersUC, signer, password.NewHasher(cfg.BcryptCost))
	postsUC := postsusecase.NewPostsUsecase(postRepo, imageRepo, storage, pagination.NewEngine[postentity.Post](cfg.BaseURL))
	chatsUC := chatsusecase.NewChatsUsecase(
		chatRepo,
		messageRepo,
		broadcaster,
		pagination.NewEngine[chatentity.Chat](cfg.BaseURL),
		pagination.NewEngine[chatentity.Message](cfg.BaseURL),
	)

	// Handler
	probes := map[string]platformhandler.Probe{"database": sqlProbe(db)}
	if rdb != nil {
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	return router.Deps{
		Auth:   authhandler.NewAuthHandler(authUC),
		Users:  usershandler.NewUsersHandler(usersUC, limits),
		Posts:  postshandler.NewPostsHandler(postsUC, limits),
		Upload: postshandler.NewUploadHandler(storage),
		Chats:  chatshandler.NewChatsHandler(chatsUC, limits),
		Stream: chatshandler.NewStreamHandler(chatsUC, broadcaster, transactions, cfg.AllowedOrigins()),
		Health: platformhandler.NewHealthHandler(probes),

		Tokens:       signer,
		Transactions: transactions,
		LoginLimiter: ratelimiter.NewRateLimiter(cfg.LoginRateLimit, time.Minute),

		PublicDir:      cfg.PublicDir,
		AllowedOrigins: cfg.AllowedOrigins(),
	}, nil
}

func sqlProbe(db *gorm.DB) platformhandler.Probe {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
