// Package utils holds small pagination helpers shared by the handler and
// service layers. They carry no domain types, so either side can use them
// without import cycles.
package utils

import "strconv"

// AtoiDefault parses s as a decimal integer, returning def when s is empty
// or not a number. List endpoints use it for lenient paging input: a bad
// page parameter falls back instead of failing the request.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// PageOffset converts a 1-based page number into the row offset for a page
// of the given size. Out-of-range inputs map to offset 0.
func PageOffset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// TotalPages reports how many pages of pageSize rows cover total rows.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize < 1 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
