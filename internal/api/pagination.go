package api

import (
	"net/http"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// PaginationParams holds parsed pagination query parameters.
type PaginationParams struct {
	Page     int
	PageSize int
}

// ParsePagination extracts pagination parameters from the request.
// Defaults: page=1, page_size=10. Maximum page_size is 100.
func ParsePagination(r *http.Request) PaginationParams {
	p := PaginationParams{
		Page:     defaultPage,
		PageSize: defaultPageSize,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}

	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.PageSize = n
			if p.PageSize > maxPageSize {
				p.PageSize = maxPageSize
			}
		}
	}

	return p
}

// Offset returns the database offset for the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages calculates the total number of pages for a given total count.
func (p PaginationParams) TotalPages(total int64) int {
	if p.PageSize <= 0 {
		return 0
	}
	pages := int(total) / p.PageSize
	if int(total)%p.PageSize > 0 {
		pages++
	}
	return pages
}
