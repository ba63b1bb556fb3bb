// Package pagination normalizes list paging parameters.
package pagination

import (
	"fmt"
	"strconv"
)

// Limits bounds page sizes.
type Limits struct {
	Default int
	Max     int
}

// Page is a normalized page request.
type Page struct {
	Offset int
	Size   int
}

// ClampSize applies the default and maximum to a requested size.
func ClampSize(requested int, limits Limits) int {
	size := requested
	if size <= 0 {
		size = limits.Default
	}
	if limits.Max > 0 && size > limits.Max {
		size = limits.Max
	}
	if size <= 0 {
		size = 1
	}
	return size
}

// Parse reads a page from a requested size and an opaque page token. An
// empty token starts at the first item.
func Parse(size int, token string, limits Limits) (Page, error) {
	page := Page{Size: ClampSize(size, limits)}
	if token == "" {
		return page, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return Page{}, fmt.Errorf("invalid page token: %q", token)
	}
	page.Offset = offset
	return page, nil
}

// Bounds returns the slice bounds of the page within total items and the
// token of the following page, empty on the last page.
func (p Page) Bounds(total int) (start, end int, next string) {
	start = min(p.Offset, total)
	end = min(start+p.Size, total)
	if end < total {
		next = strconv.Itoa(end)
	}
	return start, end, next
}
