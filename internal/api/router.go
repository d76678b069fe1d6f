package api

import (
	"net/http"

	"github.com/newsblog/backend/internal/articles"
	"github.com/newsblog/backend/internal/auth"
	"github.com/newsblog/backend/internal/comments"
	apperrors "github.com/newsblog/backend/internal/errors"
	"github.com/newsblog/backend/internal/health"
	"github.com/newsblog/backend/internal/metrics"
	"github.com/newsblog/backend/internal/mirror"
	"github.com/newsblog/backend/internal/session"
)

type Router struct {
	mux             *http.ServeMux
	authService     *auth.Service
	authHandlers    *auth.Handlers
	articleHandlers *articles.Handlers
	commentHandlers *comments.Handlers
	mirrorHandlers  *mirror.Handlers
	sessionHandlers *session.Handlers
	healthHandler   *health.Handler
	metrics         *metrics.Metrics
}

type RouterConfig struct {
	AuthService     *auth.Service
	AuthHandlers    *auth.Handlers
	ArticleHandlers *articles.Handlers
	CommentHandlers *comments.Handlers
	MirrorHandlers  *mirror.Handlers
	SessionHandlers *session.Handlers
	HealthHandler   *health.Handler
	Metrics         *metrics.Metrics
}

func NewRouter(cfg *RouterConfig) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		authService:     cfg.AuthService,
		authHandlers:    cfg.AuthHandlers,
		articleHandlers: cfg.ArticleHandlers,
		commentHandlers: cfg.CommentHandlers,
		mirrorHandlers:  cfg.MirrorHandlers,
		sessionHandlers: cfg.SessionHandlers,
		healthHandler:   cfg.HealthHandler,
		metrics:         cfg.Metrics,
	}
	r.setupRoutes()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	// Operational endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Liveness)
	r.mux.HandleFunc("GET /health/ready", r.healthHandler.Readiness)
	r.mux.HandleFunc("GET /metrics", r.metrics.Handler)

	// Auth API (no auth required)
	r.mux.HandleFunc("POST /api/auth/register", apperrors.HandleFunc(r.authHandlers.Register))
	r.mux.HandleFunc("POST /api/auth/login", apperrors.HandleFunc(r.authHandlers.Login))
	r.mux.HandleFunc("POST /api/auth/refresh", apperrors.HandleFunc(r.authHandlers.Refresh))

	// Auth API (bearer token required)
	r.mux.HandleFunc("POST /api/auth/logout", r.withAuth(r.authHandlers.Logout))
	r.mux.HandleFunc("GET /api/auth/me", r.withAuth(r.authHandlers.Me))

	// Articles: public reads
	r.mux.HandleFunc("GET /api/articles", apperrors.HandleFunc(r.articleHandlers.List))
	r.mux.HandleFunc("GET /api/articles/{id}", apperrors.HandleFunc(r.articleHandlers.Get))
	r.mux.HandleFunc("GET /api/articles/category/{category}", apperrors.HandleFunc(r.articleHandlers.ListByCategory))
	r.mux.HandleFunc("GET /api/articles/sort/date", apperrors.HandleFunc(r.articleHandlers.ListByDate))
	r.mux.HandleFunc("GET /api/articles/search", apperrors.HandleFunc(r.articleHandlers.Search))

	// Articles: guarded writes, ownership enforced in the service
	r.mux.HandleFunc("POST /api/articles", r.withAuth(r.articleHandlers.Create))
	r.mux.HandleFunc("PUT /api/articles/{id}", r.withAuth(r.articleHandlers.Update))
	r.mux.HandleFunc("DELETE /api/articles/{id}", r.withAuth(r.articleHandlers.Delete))

	// Comments: only creation is guarded
	r.mux.HandleFunc("GET /api/comment", apperrors.HandleFunc(r.commentHandlers.List))
	r.mux.HandleFunc("GET /api/comment/{id}", apperrors.HandleFunc(r.commentHandlers.Get))
	r.mux.HandleFunc("POST /api/comment", r.withAuth(r.commentHandlers.Create))
	r.mux.HandleFunc("PUT /api/comment/{id}", apperrors.HandleFunc(r.commentHandlers.Update))
	r.mux.HandleFunc("DELETE /api/comment/{id}", apperrors.HandleFunc(r.commentHandlers.Delete))

	// JSON mirror (public reads)
	r.mux.HandleFunc("GET /api/json/articles", apperrors.HandleFunc(r.mirrorHandlers.Articles))
	r.mux.HandleFunc("GET /api/json/comments", apperrors.HandleFunc(r.mirrorHandlers.Comments))

	// Cookie sessions for the rendered site
	r.mux.HandleFunc("POST /login", apperrors.HandleFunc(r.sessionHandlers.Login))
	r.mux.HandleFunc("POST /logout", apperrors.HandleFunc(r.sessionHandlers.Logout))
}

func (r *Router) withAuth(next apperrors.Handler) http.HandlerFunc {
	guarded := auth.Middleware(r.authService)(apperrors.HandleFunc(next))
	return func(w http.ResponseWriter, req *http.Request) {
		guarded.ServeHTTP(w, req)
	}
}
