package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

// rateLimiter keeps one token bucket per client address.
type rateLimiter struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
	logger   *zap.Logger
	now      func() time.Time
}

type limiterEntry struct {
	mu         sync.Mutex
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newRateLimiter(requestsPerSecond float64, burst int, logger *zap.Logger) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limit:  rate.Limit(requestsPerSecond),
		burst:  burst,
		logger: logger,
		now:    time.Now,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	now := rl.now()
	val, _ := rl.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)})
	entry := val.(*limiterEntry)

	entry.mu.Lock()
	entry.lastAccess = now
	entry.mu.Unlock()
	return entry.limiter.AllowN(now, 1)
}

// prune drops limiters that have been idle for longer than the timeout.
func (rl *rateLimiter) prune() {
	cutoff := rl.now().Add(-limiterIdleTimeout)
	rl.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		idle := entry.lastAccess.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	var requests int
	var mu sync.Mutex

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		mu.Lock()
		requests++
		if requests%1000 == 0 {
			rl.prune()
		}
		mu.Unlock()

		key := clientKey(r)
		if !rl.allow(key) {
			rl.logger.Warn("rate limit exceeded",
				zap.String("op", "server.rateLimiter"),
				zap.String("request_id", RequestID(r.Context())),
				zap.String("client", key),
			)
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
