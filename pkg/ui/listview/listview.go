// Package listview implements client-side search, filtering and paging over
// lists already fetched from the backend.
package listview

import (
	"strings"
)

// Search keeps items where any of fields(item) contains text,
// case-insensitively. Blank text keeps everything.
func Search[T any](items []T, text string, fields func(T) []string) []T {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), text) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Filter keeps items for which keep returns true.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Equals returns a predicate matching field(item) == want; an empty want
// matches everything, like an unset dropdown.
func Equals[T any](want string, field func(T) string) func(T) bool {
	return func(it T) bool {
		return want == "" || strings.EqualFold(field(it), want)
	}
}

// Page is one page of a list. HasNext reports whether another page follows.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"hasNext"`
}

// Paginate slices items. A non-positive limit returns everything from offset.
func Paginate[T any](items []T, offset, limit int) Page[T] {
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return Page[T]{Items: items[offset:end], Total: total, Offset: offset, Limit: limit, HasNext: end < total}
}
