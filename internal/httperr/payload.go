package httperr

import (
	"fmt"

	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/payload"
)

// PayloadKind tags the variants of PayloadError.
type PayloadKind uint8

const (
	// PayloadTransport: the body could not be received.
	PayloadTransport PayloadKind = iota + 1
	// PayloadJSON: a JSON endpoint failed (media type, size, decode shape).
	PayloadJSON
	// PayloadQuery: a query-string parameter could not be parsed.
	PayloadQuery
	// PayloadMalformed: a body was sent but is not syntactically valid.
	PayloadMalformed
	// PayloadMissing: the endpoint requires a body and none was sent.
	PayloadMissing
)

// PayloadError covers everything between raw request bytes and a parsed
// body or query. Exactly one field matching Kind is populated.
//
// Malformed and Missing are never reported by the parsing layer directly;
// FromJSON derives them from a deserialization failure's metadata.
type PayloadError struct {
	Kind      PayloadKind
	Body      *payload.BodyError
	JSON      *payload.JSONError
	Query     *payload.QueryError
	Malformed *payload.DecodeError
}

// FromBody wraps a transport failure unchanged.
func FromBody(e *payload.BodyError) *PayloadError {
	return &PayloadError{Kind: PayloadTransport, Body: e}
}

// FromJSON classifies a JSON endpoint failure, splitting deserialization
// errors into their true causes:
//
//  1. An unexpected-end-of-input failure at line 1, column 0 means the parser
//     consumed zero bytes: no body was sent at all. -> PayloadMissing
//  2. Any other failure whose category is not "data" means bytes were sent
//     but are not valid JSON. -> PayloadMalformed, keeping the position
//     diagnostic for the message.
//  3. Everything else (valid JSON of the wrong shape, media type, size cap,
//     transport, serialization) stays a JSON wrap, untouched.
//
// The order matters: an empty body and a truncated body produce the same
// error kind from encoding/json, and only the position separates them.
func FromJSON(e *payload.JSONError) *PayloadError {
	if e.Kind == payload.JSONDeserialize && e.Decode != nil {
		d := e.Decode
		if d.Category == payload.CategoryEOF && d.Line == 1 && d.Column == 0 {
			return &PayloadError{Kind: PayloadMissing}
		}
		if d.Category != payload.CategoryData {
			return &PayloadError{Kind: PayloadMalformed, Malformed: d}
		}
	}
	return &PayloadError{Kind: PayloadJSON, JSON: e}
}

// FromQuery wraps a query-string failure unchanged.
func FromQuery(e *payload.QueryError) *PayloadError {
	return &PayloadError{Kind: PayloadQuery, Query: e}
}

// NewMissingPayload reports an absent body on an endpoint that requires one.
func NewMissingPayload() *PayloadError {
	return &PayloadError{Kind: PayloadMissing}
}

// Error implements the error interface. Wrapped variants render the leaf's
// message unchanged; the derived variants own their wording.
func (e *PayloadError) Error() string {
	switch e.Kind {
	case PayloadTransport:
		return e.Body.Error()
	case PayloadJSON:
		return e.JSON.Error()
	case PayloadQuery:
		return e.Query.Error()
	case PayloadMalformed:
		return fmt.Sprintf("The json payload provided is malformed. `%v`.", e.Malformed)
	default:
		return "A json payload is missing."
	}
}

// Unwrap exposes the wrapped leaf, or nil for the missing-payload variant.
func (e *PayloadError) Unwrap() error {
	switch e.Kind {
	case PayloadTransport:
		return e.Body
	case PayloadJSON:
		return e.JSON
	case PayloadQuery:
		return e.Query
	case PayloadMalformed:
		return e.Malformed
	default:
		return nil
	}
}

// ErrorCode implements errcode.Coder. The mapping is total over every
// constructible variant and sub-kind; nothing falls through to a panic.
func (e *PayloadError) ErrorCode() errcode.Code {
	switch e.Kind {
	case PayloadTransport:
		return bodyCode(e.Body.Kind)
	case PayloadJSON:
		switch e.JSON.Kind {
		case payload.JSONOverflow:
			return errcode.PayloadTooLarge
		case payload.JSONContentType:
			return errcode.UnsupportedMediaType
		case payload.JSONTransport:
			return bodyCode(e.JSON.Body.Kind)
		case payload.JSONSerialize:
			return errcode.Internal
		default: // JSONDeserialize: only data-shape failures reach this wrap
			return errcode.BadRequest
		}
	case PayloadQuery:
		if e.Query.Kind == payload.QueryDeserialize {
			return errcode.BadRequest
		}
		return errcode.Internal
	case PayloadMalformed:
		return errcode.MalformedPayload
	case PayloadMissing:
		return errcode.MissingPayload
	default:
		return errcode.Internal
	}
}

// bodyCode maps every transport sub-case to an explicit code. Truncation,
// unknown length and framing faults are attributed to the request; encoding
// corruption and plain I/O faults are not.
func bodyCode(k payload.BodyKind) errcode.Code {
	switch k {
	case payload.BodyOverflow:
		return errcode.PayloadTooLarge
	case payload.BodyIncomplete, payload.BodyUnknownLength, payload.BodyProtocol:
		return errcode.BadRequest
	default: // BodyEncodingCorrupted, BodyIO
		return errcode.Internal
	}
}
