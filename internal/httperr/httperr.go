// Package httperr unifies every failure a request can produce into one error
// type the HTTP boundary knows how to render.
//
// The package defines two closed unions. Error is the top level: one variant
// per failure source (content negotiation, payload handling, scheduler, blob
// store, document parsing, worker join), each owning the original leaf error
// unchanged. PayloadError is the second level, covering everything that can
// go wrong between raw bytes and a parsed body.
//
// Wrapping is lossless and classification is pure: constructors never fail
// and never drop the leaf diagnostic, and ErrorCode() is a deterministic
// function of the value's structure. Components that own their taxonomy
// (scheduler, docformat, worker) keep it; their codes are forwarded, never
// recomputed.
//
// The one non-trivial rule lives in FromJSON: a JSON parser reports an empty
// body and a truncated body as the same deserialization failure, so the
// missing-vs-malformed split is derived from the failure's position metadata.
package httperr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tbourn/go-index-backend/internal/docformat"
	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/worker"
)

// Kind tags the top-level variants of Error.
type Kind uint8

const (
	// KindMissingContentType: a payload endpoint was called without a
	// Content-Type header.
	KindMissingContentType Kind = iota + 1
	// KindInvalidContentType: the Content-Type header names a media type the
	// endpoint does not accept.
	KindInvalidContentType
	// KindScheduler: a task queue operation failed.
	KindScheduler
	// KindPayload: receiving or parsing the request payload failed.
	KindPayload
	// KindStore: the update-file spool failed.
	KindStore
	// KindDocumentFormat: the document payload could not be parsed.
	KindDocumentFormat
	// KindJoin: a unit of work handed to the worker pool panicked.
	KindJoin
)

// Error is the single error type request handlers surface. Exactly one field
// matching Kind is populated; the others stay nil.
type Error struct {
	Kind Kind

	ContentType string   // KindInvalidContentType: the media type received
	Accepted    []string // content-type kinds: acceptable media types, sorted

	Scheduler *scheduler.Error
	Payload   *PayloadError
	Format    *docformat.Error
	Join      *worker.JoinError
	err       error // KindStore
}

// NewMissingContentType reports an absent Content-Type header on an endpoint
// that accepts the given media types. The list is copied and sorted so the
// rendered message is stable regardless of caller order.
func NewMissingContentType(accepted []string) *Error {
	return &Error{Kind: KindMissingContentType, Accepted: sortedCopy(accepted)}
}

// NewInvalidContentType reports a Content-Type the endpoint does not accept.
func NewInvalidContentType(got string, accepted []string) *Error {
	return &Error{Kind: KindInvalidContentType, ContentType: got, Accepted: sortedCopy(accepted)}
}

// FromScheduler wraps a task queue failure.
func FromScheduler(e *scheduler.Error) *Error {
	return &Error{Kind: KindScheduler, Scheduler: e}
}

// FromPayload wraps a payload failure.
func FromPayload(e *PayloadError) *Error {
	return &Error{Kind: KindPayload, Payload: e}
}

// NewStore wraps an update-file spool failure.
func NewStore(err error) *Error {
	return &Error{Kind: KindStore, err: err}
}

// FromDocumentFormat wraps a document parsing failure.
func FromDocumentFormat(e *docformat.Error) *Error {
	return &Error{Kind: KindDocumentFormat, Format: e}
}

// FromJoin wraps a worker panic.
func FromJoin(e *worker.JoinError) *Error {
	return &Error{Kind: KindJoin, Join: e}
}

// Error implements the error interface. Content-type variants build their
// message here; wrapped variants render the leaf's own message unchanged.
func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingContentType:
		return fmt.Sprintf("A Content-Type header is missing. Accepted values for the Content-Type header are: %s",
			quoteJoin(e.Accepted))
	case KindInvalidContentType:
		return fmt.Sprintf("The Content-Type `%s` is invalid. Accepted values for the Content-Type header are: %s",
			e.ContentType, quoteJoin(e.Accepted))
	case KindScheduler:
		return e.Scheduler.Error()
	case KindPayload:
		return e.Payload.Error()
	case KindStore:
		return e.err.Error()
	case KindDocumentFormat:
		return e.Format.Error()
	case KindJoin:
		return e.Join.Error()
	default:
		return "An internal error has occurred."
	}
}

// Unwrap exposes the wrapped leaf so errors.Is / errors.As reach it.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindScheduler:
		return e.Scheduler
	case KindPayload:
		return e.Payload
	case KindStore:
		return e.err
	case KindDocumentFormat:
		return e.Format
	case KindJoin:
		return e.Join
	default:
		return nil
	}
}

// ErrorCode implements errcode.Coder. Variants whose leaf owns a taxonomy
// delegate to it; store failures and worker panics are never the caller's
// fault and always map to Internal.
func (e *Error) ErrorCode() errcode.Code {
	switch e.Kind {
	case KindMissingContentType:
		return errcode.MissingContentType
	case KindInvalidContentType:
		return errcode.InvalidContentType
	case KindScheduler:
		return e.Scheduler.ErrorCode()
	case KindPayload:
		return e.Payload.ErrorCode()
	case KindDocumentFormat:
		return e.Format.ErrorCode()
	case KindJoin:
		return e.Join.ErrorCode()
	default: // KindStore and anything unclassified
		return errcode.Internal
	}
}

func sortedCopy(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	sort.Strings(out)
	return out
}

// quoteJoin renders a media-type list as `a`, `b`, `c` for error messages.
func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "`" + it + "`"
	}
	return strings.Join(quoted, ", ")
}
