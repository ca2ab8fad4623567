package model

// Pagination describes one page of a query result. It belongs to the query
// that produced it and is never merged across queries.
type Pagination struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination derives the page counters the way the backend does.
func NewPagination(page, size int, total int64) Pagination {
	if page <= 0 {
		page = 1
	}
	p := Pagination{Page: page, Size: size, Total: total}
	if size > 0 {
		p.TotalPages = int((total + int64(size) - 1) / int64(size))
		p.HasNext = int64(page*size) < total
	}
	p.HasPrev = page > 1
	return p
}
