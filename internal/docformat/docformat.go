// Package docformat parses document payloads in the three supported wire
// formats: JSON arrays, newline-delimited JSON, and CSV.
//
// Parsing is strict and total: every input either yields a list of documents
// (field name -> value maps) or a typed *Error that already knows its API
// error code. Transport concerns (content types, size limits) stay outside;
// this package starts from bytes the caller already received.
//
// CSV headers may carry a type annotation, `name:string` (default) or
// `name:number`; numeric cells are parsed as float64 and empty cells are
// omitted from the document instead of storing empty strings.
package docformat

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/payload"
)

// PayloadType identifies a supported document payload format.
type PayloadType uint8

const (
	// JSON is a single JSON array of objects (or one bare object).
	JSON PayloadType = iota + 1
	// NDJSON is one JSON object per line.
	NDJSON
	// CSV is comma-separated rows under a typed header.
	CSV
)

// String returns the short format name used in error messages.
func (t PayloadType) String() string {
	switch t {
	case JSON:
		return "json"
	case NDJSON:
		return "ndjson"
	case CSV:
		return "csv"
	default:
		return "unknown"
	}
}

// MediaType returns the Content-Type value that selects this format.
func (t PayloadType) MediaType() string {
	switch t {
	case JSON:
		return "application/json"
	case NDJSON:
		return "application/x-ndjson"
	case CSV:
		return "text/csv"
	default:
		return ""
	}
}

// AcceptedContentTypes lists the media types document endpoints accept, in
// the stable order used when rendering content-type errors.
func AcceptedContentTypes() []string {
	return []string{"application/json", "application/x-ndjson", "text/csv"}
}

// FromContentType resolves a normalized media type to its PayloadType.
func FromContentType(mediaType string) (PayloadType, bool) {
	switch mediaType {
	case "application/json":
		return JSON, true
	case "application/x-ndjson":
		return NDJSON, true
	case "text/csv":
		return CSV, true
	default:
		return 0, false
	}
}

// ErrorKind separates read failures from parse failures.
type ErrorKind uint8

const (
	// KindIo: the payload bytes could not be read.
	KindIo ErrorKind = iota + 1
	// KindMalformed: the bytes were read but do not form valid documents.
	KindMalformed
)

// Error is a document parsing failure. It implements errcode.Coder so the
// HTTP boundary renders it without knowing this package's internals.
type Error struct {
	Kind   ErrorKind
	Format PayloadType
	Line   int // 1-based row for line-oriented formats, 0 when not applicable
	err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindIo {
		return fmt.Sprintf("error while reading the %s payload: %v", e.Format, e.err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("the %s payload provided is malformed: %v at line %d", e.Format, e.err, e.Line)
	}
	return fmt.Sprintf("the %s payload provided is malformed: %v", e.Format, e.err)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.err }

// ErrorCode maps read failures to internal and parse failures to the
// malformed-payload code.
func (e *Error) ErrorCode() errcode.Code {
	if e.Kind == KindIo {
		return errcode.Internal
	}
	return errcode.MalformedPayload
}

func ioErr(t PayloadType, err error) *Error {
	return &Error{Kind: KindIo, Format: t, err: err}
}

func malformed(t PayloadType, line int, err error) *Error {
	return &Error{Kind: KindMalformed, Format: t, Line: line, err: err}
}

// ReadObjects parses r as format t and returns the documents in order.
func ReadObjects(t PayloadType, r io.Reader) ([]map[string]any, *Error) {
	switch t {
	case JSON:
		return readJSON(r)
	case NDJSON:
		return readNDJSON(r)
	case CSV:
		return readCSV(r)
	default:
		return nil, malformed(t, 0, fmt.Errorf("unsupported payload type"))
	}
}

// readJSON accepts a JSON array of objects, or a single object treated as a
// one-element batch.
func readJSON(r io.Reader) ([]map[string]any, *Error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ioErr(JSON, err)
	}

	var docs []map[string]any
	if derr := payload.DecodeJSON(data, &docs); derr != nil {
		// A top-level object is allowed as shorthand for a single document.
		var single map[string]any
		if serr := payload.DecodeJSON(data, &single); serr == nil {
			return []map[string]any{single}, nil
		}
		return nil, malformed(JSON, 0, derr)
	}
	for i, d := range docs {
		if d == nil {
			return nil, malformed(JSON, 0, fmt.Errorf("document at position %d is not an object", i))
		}
	}
	return docs, nil
}

// readNDJSON parses one JSON object per line; blank lines are skipped.
func readNDJSON(r io.Reader) ([]map[string]any, *Error) {
	br := bufio.NewReader(r)
	var docs []map[string]any
	line := 0
	for {
		raw, err := br.ReadBytes('\n')
		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			return nil, ioErr(NDJSON, err)
		}
		line++

		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
			var doc map[string]any
			if derr := payload.DecodeJSON(trimmed, &doc); derr != nil {
				return nil, malformed(NDJSON, line, derr)
			}
			if doc == nil {
				return nil, malformed(NDJSON, line, fmt.Errorf("value is not an object"))
			}
			docs = append(docs, doc)
		}

		if atEOF {
			return docs, nil
		}
	}
}

// csvColumn is a parsed CSV header cell: a field name plus cell type.
type csvColumn struct {
	name    string
	numeric bool
}

// readCSV parses rows under a typed header. Cells in `name:number` columns
// become float64; empty cells are dropped from the resulting document.
func readCSV(r io.Reader) ([]map[string]any, *Error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, csvReadErr(err)
	}

	cols := make([]csvColumn, len(header))
	for i, h := range header {
		name, typ, hasType := strings.Cut(strings.TrimSpace(h), ":")
		if name == "" {
			return nil, malformed(CSV, 1, fmt.Errorf("column %d has an empty name", i+1))
		}
		col := csvColumn{name: name}
		if hasType {
			switch typ {
			case "string":
			case "number":
				col.numeric = true
			default:
				return nil, malformed(CSV, 1, fmt.Errorf("column `%s` has unknown type `%s`, expected `string` or `number`", name, typ))
			}
		}
		cols[i] = col
	}

	var docs []map[string]any
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, csvReadErr(err)
		}

		doc := make(map[string]any, len(cols))
		for i, cell := range record {
			if i >= len(cols) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if cols[i].numeric {
				n, perr := strconv.ParseFloat(cell, 64)
				if perr != nil {
					return nil, malformed(CSV, line, fmt.Errorf("column `%s`: `%s` is not a number", cols[i].name, cell))
				}
				doc[cols[i].name] = n
				continue
			}
			doc[cols[i].name] = cell
		}
		docs = append(docs, doc)
	}
}

// csvReadErr classifies encoding/csv errors, preserving row positions.
func csvReadErr(err error) *Error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return malformed(CSV, perr.Line, err)
	}
	return ioErr(CSV, err)
}
