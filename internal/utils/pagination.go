// Package utils holds small parsing helpers shared by the HTTP and service
// layers.
package utils

import "strconv"

// Page bounds for admin listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a valid integer. Surrounding whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads raw page and page_size query values. Missing or invalid
// values fall back to page 1 and DefaultPageSize; sizes are capped at
// MaxPageSize.
func ParsePage(page, size string) Page {
	return NewPage(AtoiDefault(page, 1), AtoiDefault(size, DefaultPageSize))
}

// NewPage clamps number to >= 1 and size to [1, MaxPageSize]. A size of 0
// or less selects DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns how many pages total rows span.
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
