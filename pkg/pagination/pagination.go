package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPerPage is the catalog grid size.
	DefaultPerPage = 12
	// MaxPerPage caps per_page on every listing endpoint.
	MaxPerPage = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns page 1 with DefaultPerPage records.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// FromRequest extracts page and per_page from r. Malformed or out of range
// values fall back to defaults; the page is not clamped against a total
// because the total is not known yet.
func FromRequest(r *http.Request) Params {
	return FromRequestWithDefault(r, DefaultPerPage)
}

// FromRequestWithDefault is FromRequest with a service-configured page size.
func FromRequestWithDefault(r *http.Request, perPage int) Params {
	p := DefaultParams()
	if perPage > 0 && perPage <= MaxPerPage {
		p.PerPage = perPage
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if pp := r.URL.Query().Get("per_page"); pp != "" {
		if v, err := strconv.Atoi(pp); err == nil && v > 0 && v <= MaxPerPage {
			p.PerPage = v
		}
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// TotalPages returns ceil(total/perPage), 0 for an empty set.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	pages := total / perPage
	if total%perPage > 0 {
		pages++
	}
	return pages
}

// Clamp pins the page into [1, TotalPages(total)] and recomputes Offset.
// With no records the page is 1 and the window is empty.
func (p Params) Clamp(total int) Params {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	pages := TotalPages(total, p.PerPage)
	switch {
	case p.Page < 1 || pages == 0:
		p.Page = 1
	case p.Page > pages:
		p.Page = pages
	}
	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Window returns the [start, end) slice bounds of the page within total.
func (p Params) Window(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	if start < 0 {
		start = 0
	}
	end = start + p.PerPage
	if end > total {
		end = total
	}
	return start, end
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	totalPages := TotalPages(totalCount, params.PerPage)
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
