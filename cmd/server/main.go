package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/newsblog/backend/internal/api"
	"github.com/newsblog/backend/internal/articles"
	"github.com/newsblog/backend/internal/auth"
	"github.com/newsblog/backend/internal/cache"
	"github.com/newsblog/backend/internal/comments"
	"github.com/newsblog/backend/internal/config"
	"github.com/newsblog/backend/internal/db"
	apperrors "github.com/newsblog/backend/internal/errors"
	"github.com/newsblog/backend/internal/health"
	"github.com/newsblog/backend/internal/logger"
	"github.com/newsblog/backend/internal/metrics"
	"github.com/newsblog/backend/internal/middleware"
	"github.com/newsblog/backend/internal/mirror"
	"github.com/newsblog/backend/internal/session"

	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "")
	logger.SetDefault(log)

	database, err := db.New(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err != nil {
		log.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	userRepo := db.NewUserRepository(database)
	tokenRepo := db.NewTokenRepository(database)
	sessionRepo := db.NewSessionRepository(database)
	articleRepo := db.NewArticleRepository(database)
	commentRepo := db.NewCommentRepository(database)

	// Cache is optional: without REDIS_ADDR every read goes to postgres.
	var articleCache *cache.Cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		articleCache, err = cache.New(cfg.RedisAddr)
		if err != nil {
			log.Warn(ctx, "redis unavailable, running without cache", map[string]interface{}{"error": err.Error()})
		} else {
			defer articleCache.Close()
			redisClient = articleCache.Client()
		}
	}

	mirrorStore, err := newMirrorStore(cfg)
	if err != nil {
		log.Error(ctx, "failed to set up mirror store", err)
		os.Exit(1)
	}
	contentMirror := mirror.New(mirrorStore)

	authService := auth.NewService(userRepo, tokenRepo, cfg.JWTSecret, nil)
	sessionManager := session.NewManager(sessionRepo, userRepo, nil)

	// Expired and revoked refresh tokens accumulate; sweep them daily.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := tokenRepo.DeleteExpired(ctx); err != nil {
				log.Warn(ctx, "refresh token cleanup failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	// Keep the interface nil when redis is absent; a typed nil would not be.
	var articleCacheSeam articles.Cache
	if articleCache != nil {
		articleCacheSeam = articleCache
	}
	articleService := articles.NewService(articleRepo, articleCacheSeam, contentMirror, nil)
	commentService := comments.NewService(commentRepo, articleRepo, contentMirror, nil)

	checker := health.NewChecker(&health.CheckerConfig{
		DB:          database.DB,
		Redis:       redisClient,
		MirrorCheck: contentMirror.Check,
	})

	appMetrics := metrics.New()

	router := api.NewRouter(&api.RouterConfig{
		AuthService:     authService,
		AuthHandlers:    auth.NewHandlers(authService),
		ArticleHandlers: articles.NewHandlers(articleService),
		CommentHandlers: comments.NewHandlers(commentService),
		MirrorHandlers:  mirror.NewHandlers(contentMirror),
		SessionHandlers: session.NewHandlers(sessionManager),
		HealthHandler:   health.NewHandler(checker),
		Metrics:         appMetrics,
	})

	handler := middleware.Chain(router,
		apperrors.RequestIDMiddleware,
		middleware.Recoverer(log),
		middleware.Logging(log.WithComponent("http")),
		middleware.Metrics(appMetrics),
		middleware.CORS([]string{"*"}),
	)

	log.Info(ctx, "starting server", map[string]interface{}{"addr": cfg.ServerAddr})
	if err := http.ListenAndServe(cfg.ServerAddr, handler); err != nil {
		log.Error(ctx, "server failed", err)
		os.Exit(1)
	}
}

func newMirrorStore(cfg *config.Config) (mirror.Store, error) {
	if cfg.MirrorBackend == "s3" {
		return mirror.NewObjectStore(&mirror.ObjectStoreConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	return mirror.NewDiskStore(cfg.MirrorDir)
}
