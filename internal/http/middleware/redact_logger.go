// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger meant for
// production deployments. Search queries are free-form user input and
// regularly contain emails, phone numbers, or record identifiers; the `q`
// parameter therefore must never reach the logs verbatim, and the same goes
// for header values. Request and response bodies are never logged at all:
// document payloads are arbitrarily sensitive and arbitrarily large.
//
// RedactingLogger also attaches the request-scoped logger consumed by
// handlers through LoggerFrom, so downstream log lines inherit the scrubbed
// query rather than the raw one.
//
// Scrubbing reduces but does not eliminate the risk of sensitive data
// reaching the logs. Clients should still avoid transmitting PII in query
// strings or headers unless strictly necessary.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Substitution patterns, loosest last. UUIDs must go before phone numbers or
// the phone pattern eats the digit/hyphen segments of an identifier.
var (
	uuidPattern  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only phone pattern, so hex characters from identifiers cannot
	// match. Covers "+1 212-555-1212", "212 555 1212", "(212) 555-1212".
	phonePattern = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactedMask replaces the full value of masked headers.
const redactedMask = "[REDACTED]"

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra HTTP header names whose values are replaced whole
// with "[REDACTED]". Matching is case-insensitive and merged with the
// built-in set (Authorization, Cookie, Set-Cookie). The router adds
// Idempotency-Key here: the token is a client secret.
type RedactOptions struct {
	MaskHeaders []string
}

// scrubber knows which headers to mask outright and how to blind identifying
// values inside everything else.
type scrubber struct {
	masked map[string]struct{}
}

func newScrubber(extra []string) scrubber {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, name := range extra {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			masked[name] = struct{}{}
		}
	}
	return scrubber{masked: masked}
}

// value blinds UUIDs, email addresses, and phone numbers, in that order.
func (s scrubber) value(v string) string {
	if v == "" {
		return v
	}
	v = uuidPattern.ReplaceAllString(v, "[REDACTED:id]")
	v = emailPattern.ReplaceAllString(v, "[REDACTED:email]")
	return phonePattern.ReplaceAllString(v, "[REDACTED:phone]")
}

// headers flattens the header map into loggable form: masked names are
// hidden whole, every other value goes through the substitution patterns.
func (s scrubber) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if _, hide := s.masked[strings.ToLower(name)]; hide {
			out[name] = redactedMask
			continue
		}
		out[name] = s.value(strings.Join(values, ", "))
	}
	return out
}

// RedactingLogger returns the scrubbing access-log middleware.
//
// It emits one structured line per request — method, route, scrubbed query,
// scrubbed headers, status, response size, latency — at info level, warn for
// 4xx, error for 5xx or collected Gin errors. It also stores the
// request-scoped logger for LoggerFrom, the same way Logger() does, but with
// the scrubbed query in place of the raw one.
//
// Install it after RequestID() so the correlation ID lands on every line.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	sc := newScrubber(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()

		safeQuery := truncate(sc.value(c.Request.URL.RawQuery), maxQueryLogLength)
		reqLog := requestScope(c, safeQuery)
		c.Set(loggerKey, &reqLog)
		headers := sc.headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		line := reqLog.With().
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Logger()

		switch {
		case len(c.Errors) > 0:
			line.Error().Str("errors", c.Errors.String()).Msg("http_request")
		case status >= 500:
			line.Error().Msg("http_request")
		case status >= 400:
			line.Warn().Msg("http_request")
		default:
			line.Info().Msg("http_request")
		}
	}
}
