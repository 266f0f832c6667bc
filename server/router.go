// Package server wires the pubgate HTTP surface: health and metrics
// endpoints, the share-URL endpoint, and the catch-all browse handler.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pubgate/pubgate/access"
	"github.com/pubgate/pubgate/config"
	"github.com/pubgate/pubgate/metrics"
	"github.com/pubgate/pubgate/server/handlers"
	"github.com/pubgate/pubgate/server/middleware"
	"github.com/pubgate/pubgate/store"
	"github.com/pubgate/pubgate/thumbs"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	gate *access.Gate,
	signer *access.TokenSigner,
	tree []access.PolicyNode,
	st store.Store,
	thumbCache *thumbs.Manager,
	cfg *config.AppConfig,
	logger *zap.Logger,
) chi.Router {
	metrics.RegisterMetrics()

	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders())

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Error("Failed to write health check response", zap.Error(err))
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	// Each share request mints a signed token; keep that bounded.
	shareLimiter := rate.NewLimiter(10, 5)
	r.With(middleware.RateLimit(shareLimiter, logger)).
		Post("/share", handlers.GenerateShareURL(
			gate, signer, tree, cfg.Server.ExternalURL, cfg.Access.Realm, logger))

	r.Get("/*", handlers.Browse(gate, st, thumbCache, &cfg.Server, cfg.Access.Realm, logger))

	logger.Info("HTTP router configured successfully")

	return r
}
