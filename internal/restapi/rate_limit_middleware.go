package restapi

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	"inkboard.dev/board/internal/clock"
)

const (
	limiterIdleTimeout = 10 * time.Minute
	limiterCleanupTick = 5 * time.Minute
)

// rateLimitClient tracks a limiter and the last time its client was seen,
// so idle clients can be evicted without disturbing active ones.
type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // UnixNano
}

// RateLimitMiddleware limits requests per client IP. A non-positive rate
// disables limiting.
type RateLimitMiddleware struct {
	limiters    map[string]*rateLimitClient
	mu          sync.RWMutex
	rateLimit   rate.Limit
	burstSize   int
	cleanupTick *time.Ticker
	stopChan    chan struct{}
	stopOnce    sync.Once
	clock       clock.Clock
}

// NewRateLimitMiddleware allows ratePerInterval requests per interval for each
// client, with bursts of the same size.
func NewRateLimitMiddleware(ratePerInterval int, interval time.Duration, clk clock.Clock) *RateLimitMiddleware {
	if clk == nil {
		clk = clock.RealClock{}
	}

	rl := &RateLimitMiddleware{
		limiters: make(map[string]*rateLimitClient),
		stopChan: make(chan struct{}),
		clock:    clk,
	}
	if ratePerInterval <= 0 {
		rl.rateLimit = rate.Inf
		return rl
	}

	rl.rateLimit = rate.Every(interval / time.Duration(ratePerInterval))
	rl.burstSize = ratePerInterval
	rl.cleanupTick = time.NewTicker(limiterCleanupTick)
	go rl.cleanup()
	return rl
}

// Handler returns the HTTP middleware handler function
func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return rl.rateLimitHandler
}

// getLimiter returns the limiter for key, creating it on first use, and
// marks the client as seen.
func (rl *RateLimitMiddleware) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.RLock()
	if client, ok := rl.limiters[key]; ok {
		client.lastSeen.Store(now.UnixNano())
		rl.mu.RUnlock()
		return client.limiter
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Another goroutine might have created it while we were waiting for the lock.
	if client, ok := rl.limiters[key]; ok {
		client.lastSeen.Store(now.UnixNano())
		return client.limiter
	}

	client := &rateLimitClient{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
	client.lastSeen.Store(now.UnixNano())
	rl.limiters[key] = client
	return client.limiter
}

func (rl *RateLimitMiddleware) rateLimitHandler(next http.Handler) http.Handler {
	if rl.rateLimit == rate.Inf {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := rl.clock.Now()
		if !rl.getLimiter(clientKey(r), now).AllowN(now, 1) {
			rl.sendRateLimitExceeded(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by remote IP. Forwarding headers are
// ignored since the server is not expected to sit behind a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) retryAfter() time.Duration {
	if rl.rateLimit <= 0 || rl.rateLimit == rate.Inf {
		return time.Second
	}
	return time.Duration(float64(time.Second) / float64(rl.rateLimit))
}

// sendRateLimitExceeded sends a 429 Too Many Requests response
func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	seconds := int(math.Ceil(rl.retryAfter().Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	resp := HealthResponse{Status: "rate_limited", Detail: "Rate limit exceeded. Please try again later."}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode rate limit response", "error", err)
	}
}

// cleanupOnce evicts limiters idle for longer than limiterIdleTimeout.
// It is separate from the background loop so tests can run it synchronously.
func (rl *RateLimitMiddleware) cleanupOnce() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, client := range rl.limiters {
		lastSeen := time.Unix(0, client.lastSeen.Load())
		if now.Sub(lastSeen) > limiterIdleTimeout {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanupOnce()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call multiple times.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
		if rl.cleanupTick != nil {
			rl.cleanupTick.Stop()
		}
	})
}
