package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Category classifies what a JSON parse failure says about the input.
type Category uint8

const (
	// CategoryEOF: the input ended before a complete value was read.
	CategoryEOF Category = iota + 1
	// CategorySyntax: the input is not valid JSON.
	CategorySyntax
	// CategoryData: the input is valid JSON but does not match the target
	// shape (wrong types, out-of-range values).
	CategoryData
)

// String returns the lowercase category label used in diagnostics.
func (c Category) String() string {
	switch c {
	case CategoryEOF:
		return "eof"
	case CategorySyntax:
		return "syntax"
	case CategoryData:
		return "data"
	default:
		return "unknown"
	}
}

// DecodeError is a JSON parse failure with its category and position.
//
// Line is 1-based. Column counts bytes since the last newline, so an error at
// the very start of the input (or of empty input) reports line 1 column 0.
// The pair (CategoryEOF, line 1, column 0) therefore identifies "no payload
// at all" and is what upper layers use to distinguish a missing body from a
// malformed one.
type DecodeError struct {
	Category Category
	Line     int
	Column   int
	err      error
}

// Error renders the underlying diagnostic with its position appended.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at line %d column %d", e.err, e.Line, e.Column)
}

// Unwrap exposes the encoding/json error for errors.As chains.
func (e *DecodeError) Unwrap() error { return e.err }

// DecodeJSON unmarshals data into v, converting any failure into a
// *DecodeError with category and position. A nil return means success.
//
// Classification:
//   - *json.SyntaxError with a truncated-input message -> CategoryEOF
//   - other *json.SyntaxError                          -> CategorySyntax
//   - *json.UnmarshalTypeError                         -> CategoryData
//   - io.EOF / io.ErrUnexpectedEOF                     -> CategoryEOF
//   - anything else (custom unmarshalers etc.)         -> CategoryData
func DecodeJSON(data []byte, v any) *DecodeError {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		cat := CategorySyntax
		if isTruncated(syn) {
			cat = CategoryEOF
		}
		line, col := position(data, syn.Offset)
		return &DecodeError{Category: cat, Line: line, Column: col, err: err}
	}

	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		line, col := position(data, typ.Offset)
		return &DecodeError{Category: CategoryData, Line: line, Column: col, err: err}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		line, col := position(data, int64(len(data)))
		return &DecodeError{Category: CategoryEOF, Line: line, Column: col, err: err}
	}

	// Value-level failures from custom UnmarshalJSON implementations carry
	// no offset; report them at the end of the input.
	line, col := position(data, int64(len(data)))
	return &DecodeError{Category: CategoryData, Line: line, Column: col, err: err}
}

// isTruncated reports whether a syntax error means the input simply stopped.
func isTruncated(err *json.SyntaxError) bool {
	return strings.Contains(err.Error(), "unexpected end of JSON input")
}

// position converts a byte offset from encoding/json into (line, column).
// Offsets are clamped into [0, len(data)] before counting.
func position(data []byte, off int64) (line, col int) {
	if off < 0 {
		off = 0
	}
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	prefix := data[:off]
	line = 1 + bytes.Count(prefix, []byte{'\n'})
	last := bytes.LastIndexByte(prefix, '\n')
	col = int(off) - (last + 1)
	return line, col
}

// JSONKind enumerates the failure classes of a JSON endpoint.
type JSONKind uint8

const (
	// JSONTransport: the body could not be received.
	JSONTransport JSONKind = iota + 1
	// JSONOverflow: the body exceeded the endpoint's JSON size cap.
	JSONOverflow
	// JSONContentType: the request announced a non-JSON media type.
	JSONContentType
	// JSONDeserialize: the body was received but is not the expected JSON.
	JSONDeserialize
	// JSONSerialize: a value could not be encoded to JSON (server side).
	JSONSerialize
)

// JSONError describes a failed JSON exchange. Exactly one of Body, Decode or
// err is populated depending on Kind.
type JSONError struct {
	Kind        JSONKind
	Limit       int64        // JSONOverflow
	ContentType string       // JSONContentType
	Body        *BodyError   // JSONTransport
	Decode      *DecodeError // JSONDeserialize
	err         error        // JSONSerialize
}

// NewJSONTransport wraps a transport failure.
func NewJSONTransport(b *BodyError) *JSONError {
	return &JSONError{Kind: JSONTransport, Body: b}
}

// NewJSONOverflow records that the JSON size cap of limit bytes was exceeded.
func NewJSONOverflow(limit int64) *JSONError {
	return &JSONError{Kind: JSONOverflow, Limit: limit}
}

// NewJSONContentType records a non-JSON media type on a JSON endpoint.
func NewJSONContentType(mediaType string) *JSONError {
	return &JSONError{Kind: JSONContentType, ContentType: mediaType}
}

// NewJSONDeserialize wraps a parse failure.
func NewJSONDeserialize(d *DecodeError) *JSONError {
	return &JSONError{Kind: JSONDeserialize, Decode: d}
}

// NewJSONSerialize wraps a server-side encoding failure.
func NewJSONSerialize(err error) *JSONError {
	return &JSONError{Kind: JSONSerialize, err: err}
}

// Error implements the error interface.
func (e *JSONError) Error() string {
	switch e.Kind {
	case JSONTransport:
		return fmt.Sprintf("error while receiving the JSON payload: %v", e.Body)
	case JSONOverflow:
		return fmt.Sprintf("the JSON payload exceeds the limit of %d bytes", e.Limit)
	case JSONContentType:
		if e.ContentType == "" {
			return "a JSON payload requires the Content-Type `application/json`"
		}
		return fmt.Sprintf("the Content-Type `%s` does not allow a JSON payload", e.ContentType)
	case JSONDeserialize:
		return fmt.Sprintf("error while deserializing the JSON payload: %v", e.Decode)
	default:
		return fmt.Sprintf("error while serializing to JSON: %v", e.err)
	}
}

// Unwrap exposes the wrapped cause, if any.
func (e *JSONError) Unwrap() error {
	switch {
	case e.Body != nil:
		return e.Body
	case e.Decode != nil:
		return e.Decode
	default:
		return e.err
	}
}

// ReadJSON receives and decodes a JSON body into v, enforcing the media type
// and a size cap of limit bytes. It is the single entry point JSON endpoints
// use, so every failure they can see is a *JSONError.
//
// An absent Content-Type header is accepted (the body decides); any present
// header must name application/json. An absent body surfaces as a
// JSONDeserialize error whose DecodeError reports (eof, line 1, column 0),
// which upper layers translate to a missing-payload response.
func ReadJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) *JSONError {
	if header := r.Header.Get("Content-Type"); header != "" {
		if mt := MediaType(header); mt != "application/json" {
			return NewJSONContentType(mt)
		}
	}

	data, berr := ReadBody(w, r, limit)
	if berr != nil {
		if berr.Kind == BodyOverflow {
			return NewJSONOverflow(berr.Limit)
		}
		return NewJSONTransport(berr)
	}

	if derr := DecodeJSON(data, v); derr != nil {
		return NewJSONDeserialize(derr)
	}
	return nil
}
