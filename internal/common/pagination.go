package common

import (
	"net/http"
	"strconv"
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	return
}

// ParsePageNumber reads the storefront-style pageNumber parameter. Missing or
// malformed values fall back to page 1.
func ParsePageNumber(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("pageNumber"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// PageCount returns how many pages are needed to show total items at the
// given page size.
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}
