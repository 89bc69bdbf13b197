package payload

import (
	"bytes"
	"compress/gzip"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_DecodeJSON_Success(t *testing.T) {
	var v map[string]any
	if err := DecodeJSON([]byte(`{"a": 1}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v["a"].(float64) != 1 {
		t.Fatalf("decoded %#v", v)
	}
}

func Test_DecodeJSON_EmptyInput_IsEOFAtOrigin(t *testing.T) {
	var v map[string]any
	derr := DecodeJSON(nil, &v)
	if derr == nil {
		t.Fatal("expected error for empty input")
	}
	if derr.Category != CategoryEOF {
		t.Fatalf("category=%v want eof", derr.Category)
	}
	if derr.Line != 1 || derr.Column != 0 {
		t.Fatalf("position=(%d,%d) want (1,0)", derr.Line, derr.Column)
	}
}

func Test_DecodeJSON_SyntaxError_Position(t *testing.T) {
	var v map[string]any
	derr := DecodeJSON([]byte(`{"a": }`), &v)
	if derr == nil {
		t.Fatal("expected error")
	}
	if derr.Category != CategorySyntax {
		t.Fatalf("category=%v want syntax", derr.Category)
	}
	if derr.Line != 1 || derr.Column != 7 {
		t.Fatalf("position=(%d,%d) want (1,7)", derr.Line, derr.Column)
	}
}

func Test_DecodeJSON_TruncatedInput_IsEOFPastOrigin(t *testing.T) {
	var v map[string]any
	derr := DecodeJSON([]byte(`{"a": 1`), &v)
	if derr == nil {
		t.Fatal("expected error")
	}
	if derr.Category != CategoryEOF {
		t.Fatalf("category=%v want eof", derr.Category)
	}
	if derr.Line != 1 || derr.Column == 0 {
		t.Fatalf("position=(%d,%d): truncation after content must not sit at the origin", derr.Line, derr.Column)
	}
}

func Test_DecodeJSON_MultilineInput_CountsLines(t *testing.T) {
	var v map[string]any
	derr := DecodeJSON([]byte("{\n  \"a\": }"), &v)
	if derr == nil {
		t.Fatal("expected error")
	}
	if derr.Line != 2 {
		t.Fatalf("line=%d want 2", derr.Line)
	}
	if derr.Column != 8 {
		t.Fatalf("column=%d want 8", derr.Column)
	}
}

func Test_DecodeJSON_TypeMismatch_IsData(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	derr := DecodeJSON([]byte(`{"a": "x"}`), &v)
	if derr == nil {
		t.Fatal("expected error")
	}
	if derr.Category != CategoryData {
		t.Fatalf("category=%v want data", derr.Category)
	}
	if derr.Line != 1 {
		t.Fatalf("line=%d", derr.Line)
	}
}

// failDecode always rejects its input, standing in for custom unmarshalers.
type failDecode struct{}

func (*failDecode) UnmarshalJSON([]byte) error { return errors.New("nope") }

func Test_DecodeJSON_CustomUnmarshalerFailure_IsData(t *testing.T) {
	var v failDecode
	derr := DecodeJSON([]byte(`{"a": 1}`), &v)
	if derr == nil {
		t.Fatal("expected error")
	}
	if derr.Category != CategoryData {
		t.Fatalf("category=%v want data", derr.Category)
	}
}

func Test_DecodeError_MessageIncludesPosition(t *testing.T) {
	var v map[string]any
	derr := DecodeJSON([]byte(`{"a": }`), &v)
	if derr == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(derr.Error(), "line 1 column 7") {
		t.Fatalf("message %q lacks position", derr.Error())
	}
}

func Test_ReadJSON_RejectsNonJSONContentType(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/csv")

	var v map[string]any
	jerr := ReadJSON(httptest.NewRecorder(), req, 1<<20, &v)
	if jerr == nil || jerr.Kind != JSONContentType {
		t.Fatalf("jerr=%+v want content-type kind", jerr)
	}
	if jerr.ContentType != "text/csv" {
		t.Fatalf("content type %q", jerr.ContentType)
	}
}

func Test_ReadJSON_AllowsAbsentContentType(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"uid":"movies"}`))

	var v map[string]any
	if jerr := ReadJSON(httptest.NewRecorder(), req, 1<<20, &v); jerr != nil {
		t.Fatalf("unexpected error: %v", jerr)
	}
	if v["uid"] != "movies" {
		t.Fatalf("decoded %#v", v)
	}
}

func Test_ReadJSON_ParamsOnContentTypeAreIgnored(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	var v map[string]any
	if jerr := ReadJSON(httptest.NewRecorder(), req, 1<<20, &v); jerr != nil {
		t.Fatalf("unexpected error: %v", jerr)
	}
}

func Test_ReadJSON_EmptyBody_ReportsEOFOrigin(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("Content-Type", "application/json")

	var v map[string]any
	jerr := ReadJSON(httptest.NewRecorder(), req, 1<<20, &v)
	if jerr == nil || jerr.Kind != JSONDeserialize {
		t.Fatalf("jerr=%+v want deserialize kind", jerr)
	}
	d := jerr.Decode
	if d.Category != CategoryEOF || d.Line != 1 || d.Column != 0 {
		t.Fatalf("decode=(%v,%d,%d) want (eof,1,0)", d.Category, d.Line, d.Column)
	}
}

func Test_ReadJSON_Overflow(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"uid":"a-very-long-body"}`))
	req.Header.Set("Content-Type", "application/json")

	var v map[string]any
	jerr := ReadJSON(httptest.NewRecorder(), req, 4, &v)
	if jerr == nil || jerr.Kind != JSONOverflow {
		t.Fatalf("jerr=%+v want overflow kind", jerr)
	}
	if jerr.Limit != 4 {
		t.Fatalf("limit=%d", jerr.Limit)
	}
}

func Test_ReadJSON_CorruptedEncoding_IsTransport(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("definitely not gzip"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	var v map[string]any
	jerr := ReadJSON(httptest.NewRecorder(), req, 1<<20, &v)
	if jerr == nil || jerr.Kind != JSONTransport {
		t.Fatalf("jerr=%+v want transport kind", jerr)
	}
	if jerr.Body == nil || jerr.Body.Kind != BodyEncodingCorrupted {
		t.Fatalf("body=%+v want encoding corrupted", jerr.Body)
	}
}

func Test_ReadJSON_GzipBodyIsDecoded(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(`{"uid":"movies"}`)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	var v map[string]any
	if jerr := ReadJSON(httptest.NewRecorder(), req, 1<<20, &v); jerr != nil {
		t.Fatalf("unexpected error: %v", jerr)
	}
	if v["uid"] != "movies" {
		t.Fatalf("decoded %#v", v)
	}
}
