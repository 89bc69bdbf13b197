// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides structured request logging, a panic-safe recovery handler,
// and a request ID injector:
//
//   - RequestID() ensures every request carries a stable correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - Logger() emits structured access logs with request/response metadata
//     (latency, status, sizes), attaches a request-scoped zerolog.Logger, and
//     selects log level by outcome (info/warn/error).
//   - Recovery() converts panics into the service's standard JSON error body
//     while preserving the correlation ID and emitting a stack trace to logs.
//   - LoggerFrom() retrieves the request-scoped logger to enrich logs within
//     handlers (e.g., lg.Info().Str("index_uid", uid).Msg("…")).
//
// Compose RequestID() first, then Logger(), then Recovery(), so panics and
// errors are logged with the correlation ID. Query strings are truncated to a
// capped length; search queries can be long and ingestion requests carry large
// bodies that never belong in logs.
package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-index-backend/internal/errcode"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key holding the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// If the incoming request already has X-Request-ID, that value is reused;
// otherwise a new UUIDv4 is generated. The ID is written back to the response
// header and stored in the Gin context under the "requestID" key.
//
// Place this early in the chain so subsequent middleware/handlers can rely on
// the ID for logging and error responses.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID stored by RequestID, or "" when
// the middleware did not run.
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// routePath returns the registered route pattern, falling back to the raw
// URL path when no route matched (404s). Logs and metric labels both use it:
// patterns keep identifiers out of log fields and metric cardinality bounded.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// requestScope builds the logger every log line of this request hangs off:
// correlation ID, method, route, the index UID for index-scoped routes, and
// peer info. The query string is prepared by the caller: Logger() merely
// caps it, RedactingLogger() scrubs it first.
func requestScope(c *gin.Context, query string) zerolog.Logger {
	return log.With().
		Str("request_id", RequestIDFrom(c)).
		Str("method", c.Request.Method).
		Str("path", routePath(c)).
		Str("index_uid", c.Param("indexUid")).
		Str("remote_ip", c.ClientIP()).
		Str("user_agent", c.Request.UserAgent()).
		Str("query", query).
		// ContentLength is -1 for chunked uploads.
		Int64("bytes_in", c.Request.ContentLength).
		Logger()
}

// Logger writes one structured access log line per request and stores a
// request-scoped zerolog.Logger in the Gin context for downstream code.
//
// Log level follows the outcome: error for 5xx or collected Gin errors, warn
// for 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		l := requestScope(c, truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		line := l.With().
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch {
		case len(c.Errors) > 0:
			line.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			line.Error().Msg("request")
		case status >= 400:
			line.Warn().Msg("request")
		default:
			line.Info().Msg("request")
		}
	}
}

// Recovery intercepts panics, logs the stack trace, and answers with the
// standard error body for errcode.Internal, so a panicking handler is
// indistinguishable from any other internal fault on the wire.
//
// Place this after Logger() so the panic is captured with structured context.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				// Too late for a body; cut the connection state to 500.
				c.AbortWithStatus(errcode.Internal.HTTPStatus())
				return
			}
			c.Writer.Header().Set(requestIDHeader, rid)
			abortWithCode(c, errcode.Internal, "An internal error has occurred.")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If neither Logger() nor RedactingLogger() attached one, a fallback logger
// is returned (without request-scoped fields), so callers never need nil
// checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// abortWithCode stops the chain with the uniform error envelope. Middleware
// only ever answers with a code and a fixed message; richer rendering lives
// in the handlers package.
func abortWithCode(c *gin.Context, code errcode.Code, msg string) {
	c.AbortWithStatusJSON(code.HTTPStatus(), gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code.Name(),
		"type":       string(code.Type()),
		"message":    msg,
	})
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
//
// Note: This operates on bytes (not runes) which is acceptable for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
