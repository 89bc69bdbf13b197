// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the task-registering document
// routes (POST/PUT …/documents). It validates an Idempotency-Key request
// header, optionally performs a lookup to detect a previously registered task
// for the same (index, key) pair, and annotates the request context so
// downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests and recover the stored task UID (ReplayTaskUID)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// The middleware never serves the cached response itself; the handler stays in
// control and answers with the originally registered task's current view, so a
// client polling a replayed task sees its real progress.
package middleware

import (
	"context"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/errcode"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for task-registering operations.
//
// The value is expected to be stable for a given semantic operation so that
// retries (network, client, or server initiated) never enqueue the same
// document batch twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
// These keys are intentionally unexported and referenced via accessor helpers.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemTask   = "idem.task" // uint64: task UID of the stored replay
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
//
// Handlers should prefer this function over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// ReplayTaskUID returns the task UID recorded for a replayed request, when the
// lookup found a still-valid entry for this (index, key) pair.
func ReplayTaskUID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ctxKeyIdemTask)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint64)
	return uid, ok
}

// IsReplay reports whether the current request was matched to a previously
// registered task by IdempotencyValidator.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayTaskUID(c)
	return ok
}

// IdempotencyOptions configures header validation behavior for
// IdempotencyValidator. TTL enforcement is intentionally out of scope here and
// lives in the lookup (the repository checks ExpiresAt).
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a still-valid task registration exists for
// (indexUID, key) at the given time, and which task it produced.
//
// Return exists=true when the prior task can be replayed; return an error only
// for lookup failures (which must not block normal processing).
type IdempotencyLookup func(ctx context.Context, indexUID, key string, now time.Time) (taskUID uint64, exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context, and optionally checks for a previously
// registered task via the supplied lookup. When a replay is detected, the
// stored task UID and a rate-limit bypass flag are set on the context.
//
// Behavior:
//   - If the header is absent: the middleware is a no-op.
//   - If the header fails validation: responds 400 with the standard body.
//   - If lookup finds a prior registration: sets replay + rate-bypass flags.
//   - Always invokes the next handler unless validation fails.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		// RFC-7230-ish token + common safe chars.
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortWithCode(c, errcode.BadRequest, "The Idempotency-Key header is invalid.")
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			indexUID := c.Param("indexUid")
			now := time.Now().UTC()
			if taskUID, exists, _ := lookup(c.Request.Context(), indexUID, key, now); exists {
				c.Set(ctxKeyIdemTask, taskUID)
				c.Set(ctxKeyRateBypass, true) // replays are free
			}
		}

		c.Next()
	}
}
