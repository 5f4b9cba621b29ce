package httpx

import (
	"context"
	"net/http"
	"time"
)

// RequestObserver records one finished HTTP request.
type RequestObserver interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

type routeKey struct{}

// matchedRoute is filled in by CaptureRoute once the mux has matched.
type matchedRoute struct {
	pattern string
}

// MetricsMiddleware reports every request to obs, labelled by the matched route
// pattern rather than the raw path to keep label cardinality bounded. Handlers
// between it and the mux may replace the request, so the mux must be wrapped in
// CaptureRoute for the pattern to be seen.
func MetricsMiddleware(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw, ok := w.(*responseWriter)
			if !ok {
				rw = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			}

			route := &matchedRoute{}
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), routeKey{}, route)))

			label := route.pattern
			if label == "" {
				label = "unmatched"
			}
			obs.ObserveHTTPRequest(r.Method, label, rw.statusCode, time.Since(start))
		})
	}
}

// CaptureRoute wraps a ServeMux and hands its matched pattern back to
// MetricsMiddleware.
func CaptureRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if route, ok := r.Context().Value(routeKey{}).(*matchedRoute); ok {
			route.pattern = r.Pattern
		}
	})
}
