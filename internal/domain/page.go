package domain

// PaginationParams carries page/limit values from a surface to a listing.
// Page is 1-indexed. A zero Limit means "everything".
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional query params.
// Nil or non-positive values leave the listing unpaged; the limit is capped at 100.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, 100)
	}
	return p
}

// Offset returns the zero-based index of the first item on the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginate returns the page of items selected by p. A page past the end
// is empty.
func Paginate[T any](items []T, p PaginationParams) []T {
	if p.Limit <= 0 {
		return items
	}
	// Compare page numbers before multiplying: a huge page overflows Offset.
	pages := (len(items) + p.Limit - 1) / p.Limit
	if p.Page < 1 || p.Page-1 >= pages {
		return []T{}
	}
	start := p.Offset()
	end := min(start+p.Limit, len(items))
	return items[start:end]
}
