// Package router assembles the gin engine: middlewares, guards and every feature route.
package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "sns_backend/internal/feature/auth/transport/handler"
	chatshandler "sns_backend/internal/feature/chats/transport/handler"
	postshandler "sns_backend/internal/feature/posts/transport/handler"
	usershandler "sns_backend/internal/feature/users/transport/handler"
	platformhandler "sns_backend/internal/platform/http/handler"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/platform/metrics"
	"sns_backend/internal/platform/uow"
	"sns_backend/internal/shared/apperror"
	"sns_backend/internal/shared/ratelimiter"
)

// Deps is everything the router mounts.
type Deps struct {
	Auth   *authhandler.AuthHandler
	Users  *usershandler.UsersHandler
	Posts  *postshandler.PostsHandler
	Upload *postshandler.UploadHandler
	Chats  *chatshandler.ChatsHandler
	Stream *chatshandler.StreamHandler
	Health *platformhandler.HealthHandler

	Tokens       jwtmw.Verifier
	Transactions *uow.Manager
	LoginLimiter *ratelimiter.RateLimiter

	PublicDir      string
	AllowedOrigins []string
}

// NewRouter builds the engine.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), metrics.Middleware(), corsMiddleware(d.AllowedOrigins), apperror.Middleware())

	// No authentication
	r.GET("/healthz", d.Health.Health)
	r.HEAD("/healthz", d.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.Static("/public", d.PublicDir)

	access := jwtmw.Guard(d.Tokens, jwtmw.KindAccess)
	refresh := jwtmw.Guard(d.Tokens, jwtmw.KindRefresh)
	tx := uow.Middleware(d.Transactions)

	auth := r.Group("/auth")
	{
		auth.POST("/login/email", d.LoginLimiter.Middleware(), d.Auth.LoginEmail)
		auth.POST("/register/email", d.LoginLimiter.Middleware(), d.Auth.RegisterEmail)
		auth.POST("/token/access", refresh, d.Auth.RotateAccess)
		auth.POST("/token/refresh", refresh, d.Auth.RotateRefresh)
	}

	users := r.Group("/users")
	{
		users.GET("", d.Users.List)
		users.GET("/:id", d.Users.Get)
		users.PATCH("/:id", access, d.Users.Update)
		users.DELETE("/:id", access, d.Users.Delete)
	}

	posts := r.Group("/posts")
	{
		posts.GET("", d.Posts.List)
		posts.GET("/:id", d.Posts.Get)
		posts.POST("", access, tx, d.Posts.Create)
		posts.POST("/random", access, tx, d.Posts.GenerateRandom)
		posts.PATCH("/:id", access, d.Posts.Update)
		posts.DELETE("/:id", access, d.Posts.Delete)
	}

	r.POST("/common/image", access, d.Upload.UploadImage)

	chats := r.Group("/chats", access)
	{
		chats.POST("", d.Chats.Create)
		chats.GET("", d.Chats.List)
		chats.GET("/:id/messages", d.Chats.ListMessages)
		chats.POST("/:id/messages", tx, d.Chats.CreateMessage)
		chats.GET("/:id/ws", d.Stream.Stream)
	}

	return r
}

// corsMiddleware allows any origin when origins is empty or contains "*".
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// requestLogger writes one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("request", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	}
}
