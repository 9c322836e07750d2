package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page    int
	PerPage int
}

// FromContext extracts page and per_page from the echo context. Malformed or
// non-positive values silently fall back to the defaults.
func FromContext(c echo.Context) Params {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page <= 0 {
		page = DefaultPage
	}

	perPage, err := strconv.Atoi(c.QueryParam("per_page"))
	if err != nil || perPage <= 0 {
		perPage = DefaultPerPage
	}

	return Params{Page: page, PerPage: perPage}
}

// Limit returns the SQL LIMIT for the page.
func (p Params) Limit() int {
	return p.PerPage
}

// Offset returns the SQL OFFSET for the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages returns the number of pages needed for total matching rows.
// Zero rows means zero pages.
func (p Params) TotalPages(total int) int {
	return (total + p.PerPage - 1) / p.PerPage
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Page < p.TotalPages(total)
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Page > 1
}

// Response wraps a paginated API response.
type Response struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	HasNext    bool        `json:"has_next"`
	HasPrev    bool        `json:"has_prev"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:       data,
		Total:      total,
		TotalPages: p.TotalPages(total),
		Page:       p.Page,
		PerPage:    p.PerPage,
		HasNext:    p.HasNext(total),
		HasPrev:    p.HasPrevious(),
	}
}
