// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by paged lists.
// Keep this as an int because most call sites multiply it and then
// cast to int64 for Mongo Find().SetLimit().
const PageSize = 50

// MaxPageSize caps the "limit" query parameter.
const MaxPageSize = 200

// Page is a 1-based offset page request.
type Page struct {
	Number int
	Size   int
}

// Parse reads "page" (1-based) and "limit" from the query string.
// Missing or invalid values fall back to page 1 and PageSize; limit is
// clamped to MaxPageSize.
func Parse(r *http.Request) Page {
	return Page{
		Number: positive(query.Get(r, "page"), 1),
		Size:   min(positive(query.Get(r, "limit"), PageSize), MaxPageSize),
	}
}

func positive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Limit returns the page size as int64 for Mongo Find().SetLimit().
func (p Page) Limit() int64 { return int64(p.Size) }

// Offset returns the number of rows to skip for Mongo Find().SetSkip().
func (p Page) Offset() int64 { return int64((p.Number - 1) * p.Size) }

// Meta is the pagination block of a paged JSON response.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

// Compute builds the pagination block for a page given the total row count.
func (p Page) Compute(total int64) Meta {
	pages := int((total + int64(p.Size) - 1) / int64(p.Size))
	if pages < 1 {
		pages = 1
	}
	return Meta{
		Page:       p.Number,
		Limit:      p.Size,
		Total:      total,
		TotalPages: pages,
		HasPrev:    p.Number > 1,
		HasNext:    p.Number < pages,
	}
}
