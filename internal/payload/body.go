// Package payload classifies everything that can go wrong between a client
// and a parsed request body.
//
// The package splits failures into three typed families so callers can map
// them to API error codes without string matching:
//
//   - BodyError:   transport-level failures while receiving raw bytes
//     (truncation, size caps, corrupt encodings, protocol errors)
//   - JSONError:   failures of JSON endpoints (wrong media type, size cap,
//     transport, deserialization, serialization)
//   - QueryError:  failures while parsing query-string parameters
//
// JSON deserialization failures additionally carry a DecodeError with the
// parse category and a 1-based line / 0-based-at-EOF column position, computed
// from the byte offset reported by encoding/json. Positions let clients point
// at the exact spot in the payload they sent.
//
// The package never logs and never touches HTTP status codes; classification
// to API codes happens at the boundary (see the httperr package).
package payload

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/net/http2"
)

// BodyKind enumerates transport-level failure classes while receiving a body.
type BodyKind uint8

const (
	// BodyIncomplete: the connection closed before the full body arrived.
	BodyIncomplete BodyKind = iota + 1
	// BodyEncodingCorrupted: the Content-Encoding stream (gzip, deflate)
	// could not be decoded.
	BodyEncodingCorrupted
	// BodyOverflow: the body exceeded the configured size limit.
	BodyOverflow
	// BodyUnknownLength: the request declared no length and no limit was
	// configured, so the body cannot be read safely.
	BodyUnknownLength
	// BodyProtocol: an HTTP/2 stream or connection level error interrupted
	// the transfer.
	BodyProtocol
	// BodyIO: any other read failure.
	BodyIO
)

// BodyError describes a failed attempt to receive a request body.
type BodyError struct {
	Kind  BodyKind
	Limit int64 // set when Kind is BodyOverflow
	err   error
}

// Error implements the error interface with a client-safe description.
func (e *BodyError) Error() string {
	switch e.Kind {
	case BodyIncomplete:
		return "unexpected end of request payload"
	case BodyEncodingCorrupted:
		return fmt.Sprintf("the request payload is corrupted: %v", e.err)
	case BodyOverflow:
		return fmt.Sprintf("the request payload exceeds the limit of %d bytes", e.Limit)
	case BodyUnknownLength:
		return "the length of the request payload is unknown"
	case BodyProtocol:
		return fmt.Sprintf("stream error while receiving the request payload: %v", e.err)
	default:
		return fmt.Sprintf("error while receiving the request payload: %v", e.err)
	}
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *BodyError) Unwrap() error { return e.err }

// ClassifyBody converts a raw read error into a *BodyError.
//
// Recognized causes, in match order:
//   - *http.MaxBytesError                  -> BodyOverflow (limit from the error)
//   - http2.StreamError / ConnectionError  -> BodyProtocol
//   - io.ErrUnexpectedEOF / io.EOF         -> BodyIncomplete
//   - gzip / flate corruption              -> BodyEncodingCorrupted
//   - anything else                        -> BodyIO
//
// net/http serves HTTP/2 through a bundled copy of x/net/http2 whose error
// types are unexported, so stream errors from that path are recognized by
// message as a fallback.
func ClassifyBody(err error) *BodyError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &BodyError{Kind: BodyOverflow, Limit: maxErr.Limit, err: err}
	}

	var streamErr http2.StreamError
	var connErr http2.ConnectionError
	if errors.As(err, &streamErr) || errors.As(err, &connErr) {
		return &BodyError{Kind: BodyProtocol, err: err}
	}
	if strings.Contains(err.Error(), "stream error") {
		return &BodyError{Kind: BodyProtocol, err: err}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &BodyError{Kind: BodyIncomplete, err: err}
	}

	var corrupt flate.CorruptInputError
	if errors.As(err, &corrupt) ||
		errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, gzip.ErrChecksum) {
		return &BodyError{Kind: BodyEncodingCorrupted, err: err}
	}

	return &BodyError{Kind: BodyIO, err: err}
}

// ReadBody receives the full request body, honoring limit (bytes) and the
// request's Content-Encoding (gzip and deflate are decoded transparently).
//
// A nil, nil return means the request carried no body at all; callers that
// require a body should treat that as missing payload, not as success.
//
// When limit > 0 the body is capped with http.MaxBytesReader so oversized
// uploads abort early; w may be nil in tests. When limit <= 0 and the request
// declares no Content-Length, the read is refused with BodyUnknownLength
// rather than buffering an unbounded stream.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, *BodyError) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if limit <= 0 && r.ContentLength < 0 {
		return nil, &BodyError{Kind: BodyUnknownLength}
	}

	var src io.Reader = r.Body
	if limit > 0 {
		src = http.MaxBytesReader(w, r.Body, limit)
	}

	switch strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip":
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, ClassifyBody(err)
		}
		defer zr.Close()
		src = zr
	case "deflate":
		fr := flate.NewReader(src)
		defer fr.Close()
		src = fr
	default:
		// Unrecognized encodings pass through untouched; the format parser
		// downstream rejects what it cannot read.
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, ClassifyBody(err)
	}
	return data, nil
}

// MediaType extracts the normalized media type ("type/subtype", lowercase)
// from a Content-Type header value, dropping any parameters. Values that do
// not parse fall back to a trimmed, lowercased prefix before the first ';'.
func MediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
	}
	return mt
}
