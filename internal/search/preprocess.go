package search

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Fold lower-cases s with full Unicode case folding, so that tokens compare
// equal across scripts with case distinctions (e.g. "Straße" vs "STRASSE").
func Fold(s string) string {
	return folder.String(s)
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = Fold(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// DocumentText flattens a decoded document into the text that gets indexed.
// Field values are walked depth-first: strings verbatim, numbers and booleans
// rendered, nested objects and arrays recursed into. Field names are included
// so queries can match on them ("title"), and keys are visited in sorted
// order to keep the output deterministic.
func DocumentText(fields map[string]any) string {
	var b strings.Builder
	writeValue(&b, fields)
	return strings.TrimSpace(b.String())
}

func writeValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		// skip
	case string:
		writeToken(b, t)
	case bool:
		writeToken(b, strconv.FormatBool(t))
	case float64:
		writeToken(b, formatNumber(t))
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeToken(b, k)
			writeValue(b, t[k])
		}
	case []any:
		for _, e := range t {
			writeValue(b, e)
		}
	default:
		// encoding/json only produces the types handled above.
	}
}

func writeToken(b *strings.Builder, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(s)
}

// formatNumber renders integral floats without the trailing ".0" JSON
// decoding would otherwise leave behind ("42" not "42.000000"). The magnitude
// guard keeps the int64 conversion in range.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
