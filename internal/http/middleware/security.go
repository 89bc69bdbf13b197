// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware with a
// conservative header set for a JSON API behind a reverse proxy. There is no
// CSP: the service serves no HTML beyond the optional swagger UI, which ships
// its own inline assets and breaks under a strict policy.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers SecurityHeaders emits.
//
// EnableHSTS sends Strict-Transport-Security on HTTPS requests only; enable
// it when traffic is HTTPS end-to-end including the proxy-to-app hop.
// HSTSMaxAge defaults to 180 days when zero.
//
// NoStore adds Cache-Control: no-store. Index listings and document reads
// carry ETag validators, so NoStore normally stays off and is reserved for
// deployments behind shared caches that must never retain payloads.
//
// EnablePolicy adds the browser feature policies (Permissions-Policy,
// X-Permitted-Cross-Domain-Policies). Non-browser clients ignore them.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// hstsValue renders the Strict-Transport-Security value once, at middleware
// construction.
func (o SecurityOptions) hstsValue() string {
	maxAge := int(o.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	return "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"
}

// SecurityHeaders attaches the baseline hardening headers to every response:
// nosniff, DENY framing, and no-referrer, plus the optional groups selected
// by opt. When the request carries an X-Request-ID it is also listed in
// Access-Control-Expose-Headers so browser clients can read it for support
// tickets. Runs fine alongside the CORS and logging middlewares.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	hsts := opt.hstsValue()

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		// Never advertise HSTS on plain HTTP; a broken proxy setup would
		// otherwise lock browsers out of the origin.
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			exposeHeader(h, requestIDHeader)
		}

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers without
// clobbering entries other middleware already exposed.
func exposeHeader(h http.Header, name string) {
	const hdr = "Access-Control-Expose-Headers"
	switch cur := h.Get(hdr); {
	case cur == "":
		h.Set(hdr, name)
	case !strings.Contains(cur, name):
		h.Set(hdr, cur+", "+name)
	}
}

// isHTTPS reports whether the request used HTTPS directly (r.TLS) or arrived
// through a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
