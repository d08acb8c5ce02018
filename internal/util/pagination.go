package util

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a resolved 1-based page request.
type Page struct {
	Number int
	Size   int
	Offset int
}

// ParsePage reads page and size query values. Missing, malformed or
// out-of-range values fall back to the first page and the default size.
func ParsePage(page, size string) Page {
	n, err := strconv.Atoi(page)
	if err != nil || n < 1 {
		n = 1
	}
	s, err := strconv.Atoi(size)
	if err != nil || s < 1 || s > MaxPageSize {
		s = DefaultPageSize
	}
	return Page{Number: n, Size: s, Offset: (n - 1) * s}
}
