package httperr

import (
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/payload"
)

func decodeErr(t *testing.T, data string) *payload.DecodeError {
	t.Helper()
	var v any
	derr := payload.DecodeJSON([]byte(data), &v)
	if derr == nil {
		t.Fatalf("expected decode error for %q", data)
	}
	return derr
}

func TestFromJSON_EmptyBody_IsMissingPayload(t *testing.T) {
	derr := decodeErr(t, "")
	if derr.Category != payload.CategoryEOF || derr.Line != 1 || derr.Column != 0 {
		t.Fatalf("empty input classified as %v@(%d,%d), want eof@(1,0)", derr.Category, derr.Line, derr.Column)
	}

	pe := FromJSON(payload.NewJSONDeserialize(derr))
	if pe.Kind != PayloadMissing {
		t.Fatalf("kind = %v, want missing", pe.Kind)
	}
	if got := pe.ErrorCode(); got != errcode.MissingPayload {
		t.Fatalf("code = %v, want missing_payload", got)
	}
	if got, want := pe.Error(), "A json payload is missing."; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestFromJSON_SyntaxError_IsMalformedPayload(t *testing.T) {
	derr := decodeErr(t, `{"a": }`)
	if derr.Category != payload.CategorySyntax || derr.Line != 1 || derr.Column != 7 {
		t.Fatalf("classified as %v@(%d,%d), want syntax@(1,7)", derr.Category, derr.Line, derr.Column)
	}

	pe := FromJSON(payload.NewJSONDeserialize(derr))
	if pe.Kind != PayloadMalformed {
		t.Fatalf("kind = %v, want malformed", pe.Kind)
	}
	if got := pe.ErrorCode(); got != errcode.MalformedPayload {
		t.Fatalf("code = %v, want malformed_payload", got)
	}
	msg := pe.Error()
	if !strings.HasPrefix(msg, "The json payload provided is malformed. `") {
		t.Fatalf("message = %q", msg)
	}
	if !strings.Contains(msg, "line 1 column 7") {
		t.Fatalf("message lost the position diagnostic: %q", msg)
	}
}

func TestFromJSON_TruncatedBody_IsMalformedNotMissing(t *testing.T) {
	// Truncated input fails as eof too, but past position (1,0).
	derr := decodeErr(t, `{"a": 1`)
	if derr.Category != payload.CategoryEOF {
		t.Fatalf("category = %v, want eof", derr.Category)
	}
	if derr.Line == 1 && derr.Column == 0 {
		t.Fatalf("truncated input must not report position (1,0)")
	}

	pe := FromJSON(payload.NewJSONDeserialize(derr))
	if pe.Kind != PayloadMalformed {
		t.Fatalf("kind = %v, want malformed", pe.Kind)
	}
}

func TestFromJSON_DataShapeError_StaysJSONWrap(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	derr := payload.DecodeJSON([]byte(`{"a": "text"}`), &v)
	if derr == nil || derr.Category != payload.CategoryData {
		t.Fatalf("expected data category, got %v", derr)
	}

	pe := FromJSON(payload.NewJSONDeserialize(derr))
	if pe.Kind != PayloadJSON {
		t.Fatalf("kind = %v, want json wrap", pe.Kind)
	}
	if got := pe.ErrorCode(); got != errcode.BadRequest {
		t.Fatalf("code = %v, want bad_request", got)
	}
}

func TestFromJSON_NonDeserializeKinds_PassThrough(t *testing.T) {
	cases := []struct {
		name string
		in   *payload.JSONError
		code errcode.Code
	}{
		{"overflow", payload.NewJSONOverflow(1 << 20), errcode.PayloadTooLarge},
		{"content type", payload.NewJSONContentType("text/plain"), errcode.UnsupportedMediaType},
		{"serialize", payload.NewJSONSerialize(errors.New("cyclic value")), errcode.Internal},
		{"transport overflow", payload.NewJSONTransport(&payload.BodyError{Kind: payload.BodyOverflow, Limit: 10}), errcode.PayloadTooLarge},
		{"transport incomplete", payload.NewJSONTransport(&payload.BodyError{Kind: payload.BodyIncomplete}), errcode.BadRequest},
		{"transport io", payload.NewJSONTransport(&payload.BodyError{Kind: payload.BodyIO}), errcode.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pe := FromJSON(tc.in)
			if pe.Kind != PayloadJSON {
				t.Fatalf("kind = %v, want json wrap", pe.Kind)
			}
			if pe.JSON != tc.in {
				t.Fatalf("leaf error was not retained unchanged")
			}
			if got := pe.ErrorCode(); got != tc.code {
				t.Fatalf("code = %v, want %v", got, tc.code)
			}
		})
	}
}

func TestFromBody_AllTransportSubCasesMapped(t *testing.T) {
	cases := []struct {
		kind payload.BodyKind
		code errcode.Code
	}{
		{payload.BodyIncomplete, errcode.BadRequest},
		{payload.BodyEncodingCorrupted, errcode.Internal},
		{payload.BodyOverflow, errcode.PayloadTooLarge},
		{payload.BodyUnknownLength, errcode.BadRequest},
		{payload.BodyProtocol, errcode.BadRequest},
		{payload.BodyIO, errcode.Internal},
	}
	for _, tc := range cases {
		pe := FromBody(&payload.BodyError{Kind: tc.kind, Limit: 5})
		if pe.Kind != PayloadTransport {
			t.Fatalf("kind = %v, want transport", pe.Kind)
		}
		if got := pe.ErrorCode(); got != tc.code {
			t.Errorf("body kind %d: code = %v, want %v", tc.kind, got, tc.code)
		}
	}
}

func TestFromQuery_Mapping(t *testing.T) {
	de := FromQuery(payload.NewQueryDeserialize("limit", errors.New("expected an integer, got `ten`")))
	if got := de.ErrorCode(); got != errcode.BadRequest {
		t.Fatalf("deserialize code = %v, want bad_request", got)
	}
	if !strings.Contains(de.Error(), "`limit`") {
		t.Fatalf("message lost the parameter name: %q", de.Error())
	}

	in := FromQuery(payload.NewQueryInternal(errors.New("broken")))
	if got := in.ErrorCode(); got != errcode.Internal {
		t.Fatalf("internal code = %v, want internal", got)
	}
}

func TestNewMissingPayload(t *testing.T) {
	pe := NewMissingPayload()
	if pe.Kind != PayloadMissing || pe.ErrorCode() != errcode.MissingPayload {
		t.Fatalf("got kind=%v code=%v", pe.Kind, pe.ErrorCode())
	}
	if pe.Unwrap() != nil {
		t.Fatalf("missing payload carries no cause")
	}
}

func TestPayloadError_CodeIsDeterministic(t *testing.T) {
	pe := FromJSON(payload.NewJSONDeserialize(decodeErr(t, `[1,`)))
	first := pe.ErrorCode()
	for i := 0; i < 3; i++ {
		if got := pe.ErrorCode(); got != first {
			t.Fatalf("code changed between calls: %v then %v", first, got)
		}
	}
}

func TestPayloadError_UnwrapReachesLeaf(t *testing.T) {
	derr := decodeErr(t, `{"a": }`)
	pe := FromJSON(payload.NewJSONDeserialize(derr))

	var got *payload.DecodeError
	if !errors.As(pe, &got) || got != derr {
		t.Fatalf("errors.As did not reach the retained decode error")
	}
}
