// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a lightweight, in-memory, token-bucket rate limiter
// with per-client buckets and opportunistic garbage collection. It is
// process-local and intended for edge-level abuse control in a single-process
// deployment; horizontally scaled deployments need a distributed limiter to
// enforce global limits.
//
// Features:
//   - Per-key token buckets using golang.org/x/time/rate
//   - Pluggable identity function (client IP by default)
//   - Best-effort cleanup of idle buckets to bound memory
//   - Seamless bypass for idempotent replays (when paired with
//     IdempotencyValidator): serving a stored task again costs no tokens
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-index-backend/internal/errcode"
)

const (
	// defaultIdleTTL is how long a bucket may sit unused before eviction.
	defaultIdleTTL = 10 * time.Minute
	// gcEvery is the lookup count between opportunistic eviction sweeps.
	gcEvery = 5000
)

// keyFunc selects the identity used to key a rate-limit bucket.
//
// Implementations should return a stable string for the duration of a request.
// The returned key is used to look up the corresponding token bucket.
type keyFunc func(*gin.Context) string

// KeyByIP keys buckets by the client IP address. The API is unauthenticated,
// so the peer address is the only identity available.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// client pairs a token bucket with its last use, for idle eviction.
type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter.
//
// Buckets are created on demand in a mutex-guarded map. Idle buckets are
// evicted during lookups once every gcEvery requests to keep memory bounded.
// Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	clients map[string]*client
	lookups uint64
	idleTTL time.Duration
}

// NewRateLimiter constructs a RateLimiter replenishing rps tokens per second
// with the given burst size, keyed by keyFn. A burst below 1 is coerced to 1;
// with rps 0 the bucket never refills, so each key gets the initial burst and
// nothing more.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		clients: make(map[string]*client),
		idleTTL: defaultIdleTTL,
	}
}

// bucket returns the limiter for key, creating it on first sight.
//
// Eviction runs before the key is touched so a stale bucket is dropped even
// when it is the one being fetched, which resets its tokens as if new.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= gcEvery {
		rl.evictIdleLocked(now)
		rl.lookups = 0
	}

	if cl, ok := rl.clients[key]; ok {
		cl.seen = now
		return cl.lim
	}

	cl := &client{lim: rate.NewLimiter(rl.rps, rl.burst), seen: now}
	rl.clients[key] = cl
	return cl.lim
}

// evictIdleLocked drops buckets idle for idleTTL or longer. Callers hold mu.
func (rl *RateLimiter) evictIdleLocked(now time.Time) {
	for k, cl := range rl.clients {
		if now.Sub(cl.seen) >= rl.idleTTL {
			delete(rl.clients, k)
		}
	}
}

// IsRateBypass reports whether IdempotencyValidator marked this request for
// rate-limit bypass (i.e., it replays a previously registered task).
//
// When true, Handler() skips limiting so replays are served without consuming
// tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass) // set by IdempotencyValidator
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns a Gin middleware that enforces per-key token-bucket limits.
//
// Behavior:
//   - If IsRateBypass(c) is true (idempotent replay), limiting is skipped.
//   - Otherwise, the request is checked against the key's limiter. If allowed,
//     the request proceeds; if not, a 429 response is returned carrying the
//     too_many_requests code and a minimal Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		if rl.bucket(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		abortWithCode(c, errcode.TooManyRequests, "Too many requests. Slow down and retry.")
	}
}
