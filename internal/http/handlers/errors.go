// Package handlers – error classification at the rendering boundary.
//
// Every failure a request can produce ultimately reaches failErr, which walks
// the error chain for a code-bearing error (errcode.Coder) and renders the
// standard envelope. The classified sources are:
//
//   - *httperr.Error        content negotiation, payload pipeline, spool,
//     worker joins (the handler-side wrapper)
//   - *scheduler.Error      index/task lookups and queue registration
//   - *docformat.Error      document payload parsing
//   - *services.IngestError / *services.DocumentNotFoundError
//
// Client errors (4xx) surface the retained diagnostic verbatim: the sorted
// accepted media types, the parser's line/column, the offending identifier.
// Server errors (5xx) are logged with the full chain and answered with a
// generic message; internals never leak into response bodies.
package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/http/middleware"
)

// internalMessage is the only message 5xx responses ever carry.
const internalMessage = "An internal error has occurred."

// failErr renders err as the standard error envelope.
//
// The first errcode.Coder in the chain decides status, code, and type; its
// message is used verbatim for client errors. Unclassified errors and context
// cancellations map to Internal.
func failErr(c *gin.Context, err error) {
	var coder errcode.Coder
	if !errors.As(err, &coder) || isContextErr(err) {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("unclassified error")
		fail(c, errcode.Internal, internalMessage)
		return
	}

	code := coder.ErrorCode()
	msg := err.Error()
	if code.HTTPStatus() >= 500 {
		// fail() logs the 5xx; keep the chain in the log, not the body.
		middleware.LoggerFrom(c).Error().Err(err).Str("code", code.Name()).Msg("request failed")
		msg = internalMessage
	}
	fail(c, code, msg)
}

// isContextErr reports whether the chain ends in a cancellation or deadline.
// Those are not client mistakes regardless of any code found along the way.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
