package listing

import (
	"cmp"
	"slices"
	"strings"

	"github.com/wise004/Edupress-sub001/pkg/pagination"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

// Result is one evaluation of the pipeline.
type Result struct {
	// Matched is the full filtered and sorted list.
	Matched    []domain.Course `json:"-"`
	Items      []domain.Course `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// HasNext reports whether a later page exists.
func (r Result) HasNext() bool { return r.Page < r.TotalPages }

// HasPrev reports whether an earlier page exists.
func (r Result) HasPrev() bool { return r.Page > 1 }

// Pagination converts r to the shared paginated envelope.
func (r Result) Pagination() pagination.Result[domain.Course] {
	return pagination.NewResult(r.Items, r.Total, pagination.Params{Page: r.Page, PerPage: r.PageSize})
}

// Run filters, sorts and paginates courses. The input is never modified.
// A page outside [1, TotalPages] is clamped to the nearest bound.
func Run(courses []domain.Course, p Params) Result {
	p = p.normalized()
	matched := Sort(Filter(courses, p), p.Sort)

	pg := pagination.Params{Page: p.Page, PerPage: p.PageSize}.Clamp(len(matched))
	start, end := pg.Window(len(matched))

	return Result{
		Matched:    matched,
		Items:      matched[start:end:end],
		Total:      len(matched),
		Page:       pg.Page,
		PageSize:   pg.PerPage,
		TotalPages: pagination.TotalPages(len(matched), pg.PerPage),
	}
}

// Filter returns the courses matching every predicate of p, in input order.
func Filter(courses []domain.Course, p Params) []domain.Course {
	p = p.normalized()
	term := p.term()

	out := make([]domain.Course, 0, len(courses))
	for _, c := range courses {
		if matches(c, p, term) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether c passes the filters of p.
func Matches(c domain.Course, p Params) bool {
	p = p.normalized()
	return matches(c, p, p.term())
}

func matches(c domain.Course, p Params, term string) bool {
	if term != "" &&
		!strings.Contains(strings.ToLower(c.Title), term) &&
		!strings.Contains(strings.ToLower(c.Description), term) {
		return false
	}
	if p.Category != All && c.Category != p.Category {
		return false
	}
	if p.Level != All && string(c.Level) != p.Level {
		return false
	}
	switch p.Price {
	case TierFree:
		return c.IsFree
	case TierPaid:
		return !c.IsFree
	}
	return true
}

// Sort returns a stably sorted copy of courses. Equal keys keep their input
// order.
func Sort(courses []domain.Course, key SortKey) []domain.Course {
	out := slices.Clone(courses)
	if out == nil {
		out = []domain.Course{}
	}
	slices.SortStableFunc(out, comparator(ParseSortKey(string(key))))
	return out
}

func comparator(key SortKey) func(a, b domain.Course) int {
	switch key {
	case SortNewest:
		// Ids stand in for creation order; there is no timestamp.
		return func(a, b domain.Course) int { return cmp.Compare(b.NumericID(), a.NumericID()) }
	case SortPriceLow:
		return func(a, b domain.Course) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceHigh:
		return func(a, b domain.Course) int { return cmp.Compare(b.Price, a.Price) }
	case SortRating:
		return func(a, b domain.Course) int { return cmp.Compare(b.Rating, a.Rating) }
	default:
		return func(a, b domain.Course) int { return cmp.Compare(b.EnrollmentCount, a.EnrollmentCount) }
	}
}
