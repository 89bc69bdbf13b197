package payload

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// QueryKind enumerates the failure classes of query-string parsing.
type QueryKind uint8

const (
	// QueryDeserialize: a parameter was present but could not be parsed
	// into its expected type or allowed values.
	QueryDeserialize QueryKind = iota + 1
	// QueryInternal: the query string itself could not be processed.
	QueryInternal
)

// QueryError describes a failed query-string parse, naming the parameter so
// clients can correct the exact field.
type QueryError struct {
	Kind  QueryKind
	Param string
	err   error
}

// NewQueryDeserialize records that param could not be parsed.
func NewQueryDeserialize(param string, err error) *QueryError {
	return &QueryError{Kind: QueryDeserialize, Param: param, err: err}
}

// NewQueryInternal records a non-client failure while handling the query.
func NewQueryInternal(err error) *QueryError {
	return &QueryError{Kind: QueryInternal, err: err}
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Kind == QueryDeserialize {
		return fmt.Sprintf("invalid value for query parameter `%s`: %v", e.Param, e.err)
	}
	return fmt.Sprintf("error while handling the query string: %v", e.err)
}

// Unwrap exposes the underlying cause.
func (e *QueryError) Unwrap() error { return e.err }

// QueryInt parses an optional integer parameter, returning def when absent.
// A present but unparsable value is an error; silent fallbacks would hide
// client typos like `?limit=ten`.
func QueryInt(values url.Values, key string, def int) (int, *QueryError) {
	raw := values.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewQueryDeserialize(key, fmt.Errorf("expected an integer, got `%s`", raw))
	}
	return n, nil
}

// QueryUint64 parses an optional non-negative integer parameter.
func QueryUint64(values url.Values, key string, def uint64) (uint64, *QueryError) {
	raw := values.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, NewQueryDeserialize(key, fmt.Errorf("expected a non-negative integer, got `%s`", raw))
	}
	return n, nil
}

// QueryCSV splits a comma-separated parameter into trimmed, non-empty items.
// An absent parameter yields nil.
func QueryCSV(values url.Values, key string) []string {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// QueryEnumCSV parses a comma-separated parameter whose items must all belong
// to allowed. Unknown items fail the whole parameter, listing the offender.
func QueryEnumCSV(values url.Values, key string, allowed []string) ([]string, *QueryError) {
	items := QueryCSV(values, key)
	if len(items) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	for _, it := range items {
		if _, ok := set[it]; !ok {
			return nil, NewQueryDeserialize(key,
				fmt.Errorf("`%s` is not one of %s", it, quoteJoin(allowed)))
		}
	}
	return items, nil
}

// quoteJoin renders a list as `a`, `b`, `c` for error messages.
func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "`" + it + "`"
	}
	return strings.Join(quoted, ", ")
}
