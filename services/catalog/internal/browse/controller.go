// Package browse is the catalog page container: it owns the listing
// parameters and the working collection, and re-runs the pipeline on every
// change.
package browse

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/listing"
)

// Source supplies the courses a page shows. provider.Provider satisfies it.
type Source interface {
	GetAllCourses(ctx context.Context) ([]domain.Course, error)
	SearchCourses(ctx context.Context, term string) ([]domain.Course, error)
}

// Options configures a Controller.
type Options struct {
	// Debounce delays search fetches; DefaultDebounce when zero. Negative
	// values issue the fetch immediately.
	Debounce time.Duration
	PageSize int
	Logger   *slog.Logger
	// OnChange is called after an asynchronous search result is applied.
	OnChange func()
}

// Controller holds the state of one browsing session. It is safe for
// concurrent use; search results land from a fetch goroutine.
type Controller struct {
	src      Source
	logger   *slog.Logger
	onChange func()
	search   *Debouncer

	mu       sync.Mutex
	params   listing.Params
	all      []domain.Course
	working  []domain.Course
	loading  bool
	fetchErr error
}

// NewController creates a controller with default parameters and an empty
// collection.
func NewController(src Source, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	delay := opts.Debounce
	if delay == 0 {
		delay = DefaultDebounce
	}

	params := listing.DefaultParams()
	if opts.PageSize > 0 {
		params.PageSize = opts.PageSize
	}

	c := &Controller{
		src:      src,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		params:   params,
	}
	c.search = NewDebouncer(delay, src.SearchCourses, c.applySearch)
	return c
}

// Load fetches the full collection. A failure is logged and leaves the
// collection empty; it is returned so callers can show it.
func (c *Controller) Load(ctx context.Context) error {
	courses, err := c.src.GetAllCourses(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to load courses", slog.String("error", err.Error()))
		courses = nil
	}

	c.mu.Lock()
	c.all = courses
	if strings.TrimSpace(c.params.Search) == "" {
		c.working = courses
	}
	c.fetchErr = err
	c.mu.Unlock()
	return err
}

// Close stops pending searches.
func (c *Controller) Close() {
	c.search.Close()
}

// SetSearch changes the search term and schedules a debounced fetch. An
// empty term restores the full collection immediately.
//
// The debouncer is superseded while c.mu is held, so a fetch finishing
// concurrently can never be applied against the new term.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.params = c.params.WithSearch(term)
	term = strings.TrimSpace(term)
	if term == "" {
		c.working = c.all
		c.loading = false
		c.fetchErr = nil
		c.search.Cancel()
		return
	}
	c.loading = true
	c.search.Trigger(term)
}

func (c *Controller) applySearch(resp Response) {
	c.mu.Lock()
	if resp.Seq != c.search.Current() || resp.Term != strings.TrimSpace(c.params.Search) {
		c.mu.Unlock()
		return
	}
	if resp.Err != nil {
		c.logger.Error("course search failed",
			slog.String("term", resp.Term),
			slog.String("error", resp.Err.Error()),
		)
		c.working = nil
	} else {
		c.working = resp.Courses
	}
	c.fetchErr = resp.Err
	c.loading = false
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange()
	}
}

// SetCategory filters by category label, or listing.All.
func (c *Controller) SetCategory(category string) {
	c.update(func(p listing.Params) listing.Params { return p.WithCategory(category) })
}

// SetLevel filters by level, or listing.All.
func (c *Controller) SetLevel(level string) {
	c.update(func(p listing.Params) listing.Params { return p.WithLevel(level) })
}

// SetPrice filters by price tier.
func (c *Controller) SetPrice(tier listing.PriceTier) {
	c.update(func(p listing.Params) listing.Params { return p.WithPrice(tier) })
}

// SetSort changes the order.
func (c *Controller) SetSort(key listing.SortKey) {
	c.update(func(p listing.Params) listing.Params { return p.WithSort(key) })
}

// SetPage moves to page, clamped into the available range. Filters are
// kept.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := listing.Run(c.working, c.params.WithPage(page))
	c.params = c.params.WithPage(res.Page)
}

// NextPage advances one page when CanNext.
func (c *Controller) NextPage() {
	if c.CanNext() {
		c.SetPage(c.Params().Page + 1)
	}
}

// PrevPage goes back one page when CanPrev.
func (c *Controller) PrevPage() {
	if c.CanPrev() {
		c.SetPage(c.Params().Page - 1)
	}
}

// CanNext reports whether the next-page control is enabled.
func (c *Controller) CanNext() bool { return c.View().HasNext() }

// CanPrev reports whether the previous-page control is enabled.
func (c *Controller) CanPrev() bool { return c.View().HasPrev() }

// Reset restores the default parameters and the full collection.
func (c *Controller) Reset() {
	c.mu.Lock()
	size := c.params.PageSize
	c.params = listing.DefaultParams()
	c.params.PageSize = size
	c.working = c.all
	c.loading = false
	c.fetchErr = nil
	c.search.Cancel()
	c.mu.Unlock()
}

// View runs the pipeline over the working collection.
func (c *Controller) View() listing.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return listing.Run(c.working, c.params)
}

// Params returns the current parameters.
func (c *Controller) Params() listing.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Loading reports whether a search fetch is pending or in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error of the last fetch, if it failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchErr
}

func (c *Controller) update(fn func(listing.Params) listing.Params) {
	c.mu.Lock()
	c.params = fn(c.params)
	c.mu.Unlock()
}
