// Package services implements the application layer: index lifecycle,
// document ingestion, task views and search, all in front of the repo and
// scheduler packages. This file defines the service-level error types.
//
// Ingestion failures carry their own API code (errcode.Coder) so the task
// record and the HTTP boundary render them identically without re-deriving
// anything.
package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/tbourn/go-index-backend/internal/errcode"
)

// IngestKind enumerates document validation failures during ingestion.
type IngestKind int

const (
	// IngestMissingDocumentID: a document lacks the primary-key field.
	IngestMissingDocumentID IngestKind = iota + 1
	// IngestInvalidDocumentID: a document identifier has the wrong type or
	// violates the allowed format.
	IngestInvalidDocumentID
	// IngestInvalidPrimaryKey: the declared primary key conflicts with the
	// index, or none could be inferred.
	IngestInvalidPrimaryKey
)

// IngestError is a document validation failure. DocumentID, PrimaryKey and
// Existing fill in per kind; unused fields stay blank.
type IngestError struct {
	Kind       IngestKind
	DocumentID string
	PrimaryKey string
	Existing   string // the index's current primary key, for conflicts
}

// NewMissingDocumentID reports a document without its primary-key attribute.
func NewMissingDocumentID(primaryKey string) *IngestError {
	return &IngestError{Kind: IngestMissingDocumentID, PrimaryKey: primaryKey}
}

// NewInvalidDocumentID reports an unusable document identifier.
func NewInvalidDocumentID(docID string) *IngestError {
	return &IngestError{Kind: IngestInvalidDocumentID, DocumentID: docID}
}

// NewPrimaryKeyConflict reports a declared primary key that does not match
// the one already set on the index.
func NewPrimaryKeyConflict(declared, existing string) *IngestError {
	return &IngestError{Kind: IngestInvalidPrimaryKey, PrimaryKey: declared, Existing: existing}
}

// NewPrimaryKeyInferenceFailed reports that no primary key was declared and
// none could be inferred from the first document.
func NewPrimaryKeyInferenceFailed() *IngestError {
	return &IngestError{Kind: IngestInvalidPrimaryKey}
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	switch e.Kind {
	case IngestMissingDocumentID:
		return fmt.Sprintf("Document doesn't have a `%s` attribute.", e.PrimaryKey)
	case IngestInvalidDocumentID:
		return fmt.Sprintf("Document identifier `%s` is invalid. A document identifier can be "+
			"of type integer or string, only composed of alphanumeric characters (a-z A-Z 0-9), "+
			"hyphens (-) and underscores (_).", e.DocumentID)
	default:
		if e.Existing != "" {
			return fmt.Sprintf("The primary key `%s` does not match the index primary key `%s`.",
				e.PrimaryKey, e.Existing)
		}
		return "The primary key inference failed: no field name contains `id`. " +
			"Set the primary key explicitly with the `primaryKey` parameter."
	}
}

// ErrorCode implements errcode.Coder.
func (e *IngestError) ErrorCode() errcode.Code {
	switch e.Kind {
	case IngestMissingDocumentID:
		return errcode.MissingDocumentID
	case IngestInvalidDocumentID:
		return errcode.InvalidDocumentID
	default:
		return errcode.InvalidPrimaryKey
	}
}

// DocumentNotFoundError reports a document lookup miss. It implements
// errcode.Coder.
type DocumentNotFoundError struct {
	IndexUID string
	DocID    string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("Document `%s` not found.", e.DocID)
}

// ErrorCode implements errcode.Coder.
func (e *DocumentNotFoundError) ErrorCode() errcode.Code {
	return errcode.DocumentNotFound
}

// docIDRE is the allowed shape of a string document identifier.
var docIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,511}$`)

// ValidateDocumentID returns nil when id can be used as a document
// identifier, or an *IngestError otherwise.
func ValidateDocumentID(id string) error {
	if docIDRE.MatchString(id) {
		return nil
	}
	return NewInvalidDocumentID(id)
}

// documentIDValue renders a primary-key field value as a document identifier.
// Strings pass through; integral numbers format in decimal. Anything else is
// not an identifier.
func documentIDValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return "", false
	default:
		return "", false
	}
}
