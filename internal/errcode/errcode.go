// Package errcode defines the stable error taxonomy exposed by the public API.
//
// Every error the service returns to a client carries exactly one Code. A Code
// determines three client-visible facts: the machine-readable `code` string,
// the HTTP status, and the coarse `type` bucket. Centralizing the mapping here
// keeps the three views consistent: a handler can never ship a code with the
// wrong status because both derive from the same value.
//
// Conventions:
//   - Code names are lowercase snake_case and stable across releases; clients
//     are expected to branch on them for programmatic error handling.
//   - Codes describe the condition, not the operation ("index_not_found", not
//     "get_index_failed").
//   - Error types that know their own code implement the Coder interface;
//     From() resolves any error chain to a Code, defaulting to Internal.
//
// Example response produced from a Code (see handlers package):
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "index_not_found",
//	  "type": "invalid_request",
//	  "message": "Index `movies` not found."
//	}
package errcode

import (
	"errors"
	"net/http"
)

// Type groups codes by the party expected to act on the failure.
type Type string

const (
	// TypeInvalidRequest marks failures caused by the request itself; the
	// client must change something before retrying.
	TypeInvalidRequest Type = "invalid_request"
	// TypeInternal marks failures inside the service; retrying without
	// changes may succeed once the fault is fixed.
	TypeInternal Type = "internal"
	// TypeSystem marks capacity or saturation conditions (full queues,
	// rate limits); retrying later is the expected remedy.
	TypeSystem Type = "system"
)

// Code identifies a single error condition in the public taxonomy.
//
// The zero value is Internal so that forgetting to classify an error degrades
// to the safest possible answer (500, generic message) instead of leaking a
// wrong status.
type Code int

const (
	// Internal is the catch-all for unexpected server-side failures.
	Internal Code = iota
	// BadRequest covers request errors with no more specific code.
	BadRequest
	// MissingContentType: a payload endpoint was called without a
	// Content-Type header.
	MissingContentType
	// InvalidContentType: the Content-Type header names a media type the
	// endpoint does not accept.
	InvalidContentType
	// MissingPayload: the endpoint requires a body and none was sent.
	MissingPayload
	// MalformedPayload: a body was sent but could not be parsed.
	MalformedPayload
	// PayloadTooLarge: the body exceeds the configured size limit.
	PayloadTooLarge
	// UnsupportedMediaType: a JSON endpoint received a non-JSON body.
	UnsupportedMediaType
	// IndexNotFound: the referenced index does not exist.
	IndexNotFound
	// IndexAlreadyExists: creation was requested for an existing index UID.
	IndexAlreadyExists
	// InvalidIndexUID: the index UID violates the allowed format.
	InvalidIndexUID
	// TaskNotFound: the referenced task UID does not exist.
	TaskNotFound
	// TaskQueueFull: the task queue cannot accept more work right now.
	TaskQueueFull
	// DocumentNotFound: the referenced document does not exist in the index.
	DocumentNotFound
	// InvalidDocumentID: a document identifier contains forbidden characters
	// or is too long.
	InvalidDocumentID
	// MissingDocumentID: a document lacks its primary-key field.
	MissingDocumentID
	// InvalidPrimaryKey: the declared primary key cannot be used (e.g. it
	// conflicts with the one already set on the index).
	InvalidPrimaryKey
	// NotFound: generic fallback for unknown routes.
	NotFound
	// MethodNotAllowed: the route exists but not for this HTTP method.
	MethodNotAllowed
	// TooManyRequests: the client exceeded the request rate limit.
	TooManyRequests

	// codeCount is the number of defined codes; keep last.
	codeCount
)

// Name returns the stable snake_case identifier serialized in error bodies.
func (c Code) Name() string {
	switch c {
	case BadRequest:
		return "bad_request"
	case MissingContentType:
		return "missing_content_type"
	case InvalidContentType:
		return "invalid_content_type"
	case MissingPayload:
		return "missing_payload"
	case MalformedPayload:
		return "malformed_payload"
	case PayloadTooLarge:
		return "payload_too_large"
	case UnsupportedMediaType:
		return "unsupported_media_type"
	case IndexNotFound:
		return "index_not_found"
	case IndexAlreadyExists:
		return "index_already_exists"
	case InvalidIndexUID:
		return "invalid_index_uid"
	case TaskNotFound:
		return "task_not_found"
	case TaskQueueFull:
		return "task_queue_full"
	case DocumentNotFound:
		return "document_not_found"
	case InvalidDocumentID:
		return "invalid_document_id"
	case MissingDocumentID:
		return "missing_document_id"
	case InvalidPrimaryKey:
		return "invalid_primary_key"
	case NotFound:
		return "not_found"
	case MethodNotAllowed:
		return "method_not_allowed"
	case TooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// HTTPStatus returns the HTTP status code a response carrying c must use.
func (c Code) HTTPStatus() int {
	switch c {
	case BadRequest, MissingPayload, MalformedPayload, InvalidIndexUID,
		InvalidDocumentID, MissingDocumentID, InvalidPrimaryKey:
		return http.StatusBadRequest
	case MissingContentType, InvalidContentType, UnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case IndexNotFound, TaskNotFound, DocumentNotFound, NotFound:
		return http.StatusNotFound
	case IndexAlreadyExists:
		return http.StatusConflict
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case TaskQueueFull, TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Type returns the coarse bucket used in the `type` field of error bodies.
func (c Code) Type() Type {
	switch c {
	case Internal:
		return TypeInternal
	case TaskQueueFull, TooManyRequests:
		return TypeSystem
	default:
		return TypeInvalidRequest
	}
}

// String implements fmt.Stringer; it is the same as Name.
func (c Code) String() string { return c.Name() }

// Coder is implemented by error types that know which Code they map to.
//
// Layered error types (payload, scheduler, document format) each implement
// Coder; wrapper types delegate to the wrapped value so codes survive any
// number of wrapping levels.
type Coder interface {
	error
	ErrorCode() Code
}

// From resolves err to a Code by walking the error chain for a Coder.
// Unclassified errors resolve to Internal, never to a panic: every error,
// including nil-adjacent oddities from third-party code, gets an answer.
func From(err error) Code {
	var c Coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return Internal
}
