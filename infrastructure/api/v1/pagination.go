package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bibliotheca/gateway/infrastructure/api/jsonapi"
)

// DefaultPageSize is the default number of items per page.
const DefaultPageSize = 20

// MaxPageSize is the maximum allowed page size.
const MaxPageSize = 100

// PaginationParams holds pagination parameters parsed from query strings.
type PaginationParams struct {
	page     int
	pageSize int
}

// ParsePagination parses page and page_size from an HTTP request.
// Invalid values fall back to the defaults; page_size is capped.
func ParsePagination(r *http.Request) PaginationParams {
	params := PaginationParams{page: 1, pageSize: DefaultPageSize}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page >= 1 {
		params.page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && size >= 1 {
		params.pageSize = min(size, MaxPageSize)
	}
	return params
}

// Page returns the page number (1-indexed).
func (p PaginationParams) Page() int { return p.page }

// Limit returns the page size.
func (p PaginationParams) Limit() int { return p.pageSize }

// Offset returns the number of items to skip.
func (p PaginationParams) Offset() int {
	return (p.page - 1) * p.pageSize
}

func (p PaginationParams) totalPages(totalCount int64) int {
	return int((totalCount + int64(p.pageSize) - 1) / int64(p.pageSize))
}

// PaginationMeta builds a JSON:API meta object.
func PaginationMeta(params PaginationParams, totalCount int64) *jsonapi.Meta {
	return &jsonapi.Meta{
		"page":        params.Page(),
		"page_size":   params.Limit(),
		"total_count": totalCount,
		"total_pages": params.totalPages(totalCount),
	}
}

// PaginationLinks builds JSON:API links from the request, params, and total count.
func PaginationLinks(r *http.Request, params PaginationParams, totalCount int64) *jsonapi.Links {
	totalPages := params.totalPages(totalCount)

	buildURL := func(page int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(params.Limit()))
		return fmt.Sprintf("%s?%s", r.URL.Path, q.Encode())
	}

	links := jsonapi.Links{
		Self:  buildURL(params.Page()),
		First: buildURL(1),
	}
	if totalPages > 0 {
		links.Last = buildURL(totalPages)
	}
	if params.Page() > 1 {
		links.Prev = buildURL(params.Page() - 1)
	}
	if params.Page() < totalPages {
		links.Next = buildURL(params.Page() + 1)
	}
	return &links
}
