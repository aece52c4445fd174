package shared

import "math"

// DefaultPerPage is the page size used by every listing.
const DefaultPerPage = 10

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	HasNext    bool
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int, hasNext bool) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages, HasNext: hasNext}
}

// Offset returns the zero-based index of the first row of the page.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// NextPage returns the following page, or the current one when there is none.
func (p Pagination) NextPage() int {
	if !p.HasNext {
		return p.Page
	}
	return p.Page + 1
}

// PrevPage returns the previous page, never below 1.
func (p Pagination) PrevPage() int {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// GoTo clamps page into the known range.
func (p Pagination) GoTo(page int) int {
	if page < 1 {
		return 1
	}
	if p.TotalPages > 0 && page > p.TotalPages {
		return p.TotalPages
	}
	return page
}

// Pages lists the page numbers for a pager widget.
func (p Pagination) Pages() []int {
	pages := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}
