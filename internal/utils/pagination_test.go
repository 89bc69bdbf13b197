package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// no trimming, no partial parses
		{"x", 5, 5},
		{" 42", 7, 7},
		{"42x", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPageOffset(t *testing.T) {
	cases := []struct {
		page, pageSize, want int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{5, 3, 12},
		// out-of-range inputs never produce a negative offset
		{0, 20, 0},
		{-4, 20, 0},
		{3, 0, 0},
	}

	for _, tc := range cases {
		if got := PageOffset(tc.page, tc.pageSize); got != tc.want {
			t.Fatalf("PageOffset(%d, %d) = %d; want %d", tc.page, tc.pageSize, got, tc.want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 7, 15},
		// degenerate page sizes
		{10, 0, 0},
		{10, -1, 0},
		{-5, 20, 0},
	}

	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.pageSize); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d; want %d", tc.total, tc.pageSize, got, tc.want)
		}
	}
}
