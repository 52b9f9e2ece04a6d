package util

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Window is a normalized page request.
type Window struct {
	Page   int
	Size   int
	Offset int
}

// Paginate clamps page to >= 1 and size to (0, MaxPageSize], falling back to
// DefaultPageSize.
func Paginate(page, size int) Window {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Window{Page: page, Size: size, Offset: (page - 1) * size}
}

// ParseIntDefault returns def for empty or non-numeric s.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
