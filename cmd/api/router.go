package main

import (
	"context"
	"net/http"
	"time"

	"booksvc/internal/auth"
	"booksvc/internal/book"
	"booksvc/internal/config"
	"booksvc/internal/httpx"
	"booksvc/internal/platform/metrics"

	"github.com/rs/zerolog"
)

const readinessTimeout = 500 * time.Millisecond

// newHandler assembles the routes and wraps them in the middleware chain. The
// returned stop func releases the rate limiter's background goroutine.
func newHandler(cfg config.Config, repo book.Repository, authn *auth.Service, m *metrics.Metrics, log zerolog.Logger) (http.Handler, func() error) {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.Text(w, http.StatusOK, "ok")
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		p, ok := repo.(book.Pinger)
		if ok {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("readiness check failed")
				httpx.Text(w, http.StatusServiceUnavailable, "storage not ready")
				return
			}
		}
		httpx.Text(w, http.StatusOK, "ready")
	})
	router.Handle("GET /metrics", m.Handler())

	book.NewHTTPHandler(book.NewService(repo)).Routes(router)
	auth.NewHTTPHandler(authn).Routes(router)

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy)

	handler := httpx.Chain(httpx.CaptureRoute(router),
		httpx.LoggerMiddleware(log),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.MetricsMiddleware(m),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxUploadBytes),
		httpx.AuthMiddleware(authn),
	)
	return handler, limiter.Close
}
