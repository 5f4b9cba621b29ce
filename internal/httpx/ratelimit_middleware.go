package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per client address. Idle buckets
// are dropped by a janitor goroutine that runs until Close.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	idle     time.Duration
	trustXFF bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewRateLimitMiddleware limits each client to rps with the given burst.
// Clients are identified by the connection address; with trustProxy the first
// X-Forwarded-For hop is used instead, which is only safe behind a proxy that
// overwrites the header.
func NewRateLimitMiddleware(rps float64, burst int, trustProxy bool) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		clients:  make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		idle:     5 * time.Minute,
		trustXFF: trustProxy,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go rl.janitor()
	return rl
}

// Close stops the janitor goroutine. It is safe to call more than once.
func (rl *RateLimitMiddleware) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
	return nil
}

func (rl *RateLimitMiddleware) janitor() {
	defer close(rl.done)
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.evictIdle(now)
		}
	}
}

func (rl *RateLimitMiddleware) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.idle {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimitMiddleware) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (rl *RateLimitMiddleware) clientKey(r *http.Request) string {
	if rl.trustXFF {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if hop := strings.TrimSpace(first); hop != "" {
				return hop
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiterFor(rl.clientKey(r)).Allow() {
			Text(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
