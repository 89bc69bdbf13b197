package search

import (
	"strings"
	"testing"
)

func TestFold_UnicodeAware(t *testing.T) {
	if Fold("HELLO") != "hello" {
		t.Fatalf("Fold ASCII failed: %q", Fold("HELLO"))
	}
	// Full case folding: ß folds to ss.
	if Fold("Straße") != Fold("STRASSE") {
		t.Fatalf("Fold should equate Straße and STRASSE: %q vs %q", Fold("Straße"), Fold("STRASSE"))
	}
}

func TestTokenize_BasicsAndStopwords(t *testing.T) {
	toks := tokenize("The Quick, quick brown FOX!", nil)
	for _, want := range []string{"the", "quick", "brown", "fox"} {
		if _, ok := toks[want]; !ok {
			t.Fatalf("missing token %q in %#v", want, toks)
		}
	}
	if len(toks) != 4 {
		t.Fatalf("expected 4 unique tokens, got %#v", toks)
	}

	stop := map[string]struct{}{"the": {}}
	toks = tokenize("The fox", stop)
	if _, ok := toks["the"]; ok {
		t.Fatalf("stopword leaked into tokens: %#v", toks)
	}

	if toks := tokenize("!!! ...", nil); toks != nil {
		t.Fatalf("symbol-only input should produce nil tokens, got %#v", toks)
	}
}

func TestTokenize_NumbersAndAlphanumerics(t *testing.T) {
	toks := tokenize("area51 2001 odyssey", nil)
	for _, want := range []string{"area51", "2001", "odyssey"} {
		if _, ok := toks[want]; !ok {
			t.Fatalf("missing token %q in %#v", want, toks)
		}
	}
}

func TestDocumentText_FlattensNestedFields(t *testing.T) {
	doc := map[string]any{
		"id":    float64(7),
		"title": "The Matrix",
		"meta": map[string]any{
			"year":   float64(1999),
			"rating": 8.7,
			"tags":   []any{"sci-fi", "action"},
		},
		"watched": true,
		"missing": nil,
	}
	text := DocumentText(doc)

	for _, want := range []string{"7", "The Matrix", "year", "1999", "8.7", "sci-fi", "action", "true", "title"} {
		if !strings.Contains(text, want) {
			t.Fatalf("DocumentText missing %q: %q", want, text)
		}
	}
	if strings.Contains(text, "1999.") {
		t.Fatalf("integral float rendered with fraction: %q", text)
	}
}

func TestDocumentText_DeterministicKeyOrder(t *testing.T) {
	doc := map[string]any{"b": "two", "a": "one", "c": "three"}
	first := DocumentText(doc)
	for i := 0; i < 10; i++ {
		if got := DocumentText(doc); got != first {
			t.Fatalf("non-deterministic output: %q vs %q", got, first)
		}
	}
	if first != "a one b two c three" {
		t.Fatalf("unexpected flattening: %q", first)
	}
}

func TestDocumentText_EmptyAndBlankValues(t *testing.T) {
	if got := DocumentText(nil); got != "" {
		t.Fatalf("nil doc should yield empty text, got %q", got)
	}
	if got := DocumentText(map[string]any{"k": "   "}); got != "k" {
		t.Fatalf("blank string value should be skipped, got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{42, "42"},
		{-3, "-3"},
		{0, "0"},
		{2.5, "2.5"},
		{1e21, "1e+21"},
	}
	for _, c := range cases {
		if got := formatNumber(c.in); got != c.want {
			t.Fatalf("formatNumber(%v) = %q; want %q", c.in, got, c.want)
		}
	}
}
