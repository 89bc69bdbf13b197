// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including the structured error envelope, consistent JSON serialization, and
// helpers for common HTTP patterns. The goal is to guarantee uniform responses
// for both success and failure cases, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - All error responses return an ErrorResponse whose `code` and `type` come
//     from the errcode taxonomy; handlers never invent ad-hoc code strings.
//   - `fail()` centralizes formatting; `failErr()` (errors.go) classifies an
//     error chain first. 5xx responses are logged with request context and
//     carry a generic message so internals never leak to clients.
//   - `ok()` simplifies writing success responses in a consistent shape.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "index_not_found",
//	  "type": "invalid_request",
//	  "message": "Index `movies` not found."
//	}
//
// Example success response:
//
//	HTTP/1.1 202 Accepted
//	{ "uid": 7, "index_uid": "movies", "type": "documentAddition", "status": "enqueued", ... }
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable identifier (see the errcode package).
//   - Type: The error family (invalid_request, internal, system); clients use
//     it to decide between fixing the request and retrying later.
//   - Message: A human-readable error description, safe for display to users.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see the errcode package)
	Code string `json:"code" example:"index_not_found"`
	// Error family: invalid_request, internal or system
	Type string `json:"type" example:"invalid_request"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Index movies not found."`
}

// fail aborts the request with a structured error derived from code.
//
// It constructs an ErrorResponse, writes it as JSON with code's HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from
// middleware.
func fail(c *gin.Context, code errcode.Code, msg string) {
	status := code.HTTPStatus()
	resp := ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code.Name(),
		Type:      string(code.Type()),
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup for NoRoute/NoMethod) should call Fail
// to return consistent error envelopes without depending on unexported
// helpers.
func Fail(c *gin.Context, code errcode.Code, msg string) { fail(c, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// notModified publishes a weak ETag derived from collection stats (row count
// plus newest update time) and reports whether the client's If-None-Match
// already matches it, in which case the 304 has been written and the handler
// must stop. The list handlers use it as a cheap pre-check before paging.
func notModified(c *gin.Context, scope string, count int64, maxUpdatedAt *time.Time) bool {
	var ts int64
	if maxUpdatedAt != nil {
		ts = maxUpdatedAt.Unix()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, scope, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
