package services

import (
	"strings"
	"testing"

	"github.com/tbourn/go-index-backend/internal/errcode"
)

func TestIngestError_MessagesAndCodes(t *testing.T) {
	cases := []struct {
		name    string
		err     *IngestError
		code    errcode.Code
		message string
	}{
		{
			name:    "missing document id",
			err:     NewMissingDocumentID("movie_id"),
			code:    errcode.MissingDocumentID,
			message: "Document doesn't have a `movie_id` attribute.",
		},
		{
			name: "invalid document id",
			err:  NewInvalidDocumentID("a b"),
			code: errcode.InvalidDocumentID,
			message: "Document identifier `a b` is invalid. A document identifier can be " +
				"of type integer or string, only composed of alphanumeric characters (a-z A-Z 0-9), " +
				"hyphens (-) and underscores (_).",
		},
		{
			name:    "primary key conflict",
			err:     NewPrimaryKeyConflict("isbn", "id"),
			code:    errcode.InvalidPrimaryKey,
			message: "The primary key `isbn` does not match the index primary key `id`.",
		},
		{
			name: "inference failed",
			err:  NewPrimaryKeyInferenceFailed(),
			code: errcode.InvalidPrimaryKey,
			message: "The primary key inference failed: no field name contains `id`. " +
				"Set the primary key explicitly with the `primaryKey` parameter.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.message {
				t.Fatalf("message = %q, want %q", got, tc.message)
			}
			if got := tc.err.ErrorCode(); got != tc.code {
				t.Fatalf("code = %v, want %v", got, tc.code)
			}
		})
	}
}

func TestDocumentNotFoundError(t *testing.T) {
	err := &DocumentNotFoundError{IndexUID: "movies", DocID: "42"}
	if err.Error() != "Document `42` not found." {
		t.Fatalf("message = %q", err.Error())
	}
	if err.ErrorCode() != errcode.DocumentNotFound {
		t.Fatalf("code = %v, want DocumentNotFound", err.ErrorCode())
	}
}

func TestValidateDocumentID(t *testing.T) {
	valid := []string{"a", "A-Z_09", "x", strings.Repeat("k", 511)}
	for _, id := range valid {
		if err := ValidateDocumentID(id); err != nil {
			t.Fatalf("ValidateDocumentID(%q) = %v, want nil", id, err)
		}
	}
	invalid := []string{"", "has space", "café", "semi;colon", strings.Repeat("k", 512)}
	for _, id := range invalid {
		if err := ValidateDocumentID(id); err == nil {
			t.Fatalf("ValidateDocumentID(%q) = nil, want error", id)
		}
	}
}

func TestDocumentIDValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{"abc", "abc", true},
		{float64(7), "7", true},
		{float64(-3), "-3", true},
		{float64(7.5), "", false},
		{float64(1e16), "", false}, // beyond float64's exact integer range
		{true, "", false},
		{nil, "", false},
		{[]any{"x"}, "", false},
	}
	for _, tc := range cases {
		got, ok := documentIDValue(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("documentIDValue(%v) = (%q, %v), want (%q, %v)",
				tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestInferPrimaryKey(t *testing.T) {
	pk, ok := inferPrimaryKey(map[string]any{"title": "x", "movie_id": "1", "uid": "2"})
	if !ok || pk != "movie_id" {
		t.Fatalf("inferred = %q (%v), want movie_id", pk, ok)
	}
	pk, ok = inferPrimaryKey(map[string]any{"ID": "upper"})
	if !ok || pk != "ID" {
		t.Fatalf("inferred = %q (%v), want ID (case-insensitive match)", pk, ok)
	}
	if _, ok := inferPrimaryKey(map[string]any{"title": "x"}); ok {
		t.Fatalf("expected inference to fail without id-like fields")
	}
}
