package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/tilawah/internal/config"
	"github.com/heartmarshall/tilawah/internal/transport/middleware"
)

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// RouterDeps are the collaborators wired into the HTTP router.
type RouterDeps struct {
	Sync      *SyncHandler
	Health    *HealthHandler
	Validator tokenValidator
	Limiter   *middleware.RateLimiter
	Server    config.ServerConfig
	CORS      config.CORSConfig
	Log       *slog.Logger
}

// NewRouter builds the cloudsync HTTP surface.
// Health probes are public; everything under /v1 needs a bearer token.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)

	r.Route("/v1/users/{userID}", func(r chi.Router) {
		r.Use(middleware.Auth(d.Validator))
		if d.Limiter != nil {
			r.Use(d.Limiter.Limit(d.Server.RateLimit))
		}

		r.Post("/bookmarks", d.Sync.PushBookmarks)
		r.Delete("/bookmarks/{surahID}/{ayahNumber}", d.Sync.DeleteBookmark)
		r.Post("/memorization", d.Sync.PushMemorization)
		r.Post("/reading-progress", d.Sync.PushReadingProgress)
		r.Put("/settings", d.Sync.PushSettings)
		r.Get("/snapshot", d.Sync.FetchSnapshot)
	})

	return middleware.Chain(
		middleware.RequestID,
		middleware.Logger(d.Log),
		middleware.Recovery(d.Log),
		middleware.CORS(d.CORS),
	)(r)
}
