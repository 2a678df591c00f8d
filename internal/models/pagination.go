package models

// Page bounds a list query
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Pagination is the envelope metadata returned by list endpoints
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	HasMore bool `json:"has_more"`
}

// NewPagination builds pagination metadata for a page of results
func NewPagination(p Page, total int) Pagination {
	out := Pagination{Total: total, Limit: p.Limit, Offset: p.Offset, Page: 1}
	if p.Limit > 0 {
		out.Page = p.Offset/p.Limit + 1
		out.Pages = (total + p.Limit - 1) / p.Limit
	}
	out.HasMore = p.Offset+p.Limit < total
	return out
}

// MaxPageSize caps every list query
const MaxPageSize = 100

// Normalize applies the default limit and clamps limit and offset to sane bounds
func (p Page) Normalize(defaultLimit int) Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
