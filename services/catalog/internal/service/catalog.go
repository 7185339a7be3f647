package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/wise004/Edupress-sub001/pkg/errors"
	"github.com/wise004/Edupress-sub001/pkg/slug"
	"github.com/wise004/Edupress-sub001/pkg/tracing"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/listing"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider"
)

const tracerName = "github.com/wise004/Edupress-sub001/services/catalog/internal/service"

// Config tunes the catalog service.
type Config struct {
	// ProviderName labels logs and metrics, e.g. "memory".
	ProviderName string
	// PageSize applies when a request does not name one.
	PageSize int
	// RefreshInterval reloads the snapshot periodically; 0 disables it.
	RefreshInterval time.Duration
	// RefreshTimeout bounds one snapshot load.
	RefreshTimeout time.Duration
}

type snapshot struct {
	courses    []domain.Course
	categories []domain.Category
	loadedAt   time.Time
}

// CatalogService serves listings from a snapshot of the provider's
// collection. The snapshot is replaced wholesale and never mutated.
type CatalogService struct {
	provider provider.Provider
	cfg      Config
	logger   *slog.Logger

	mu   sync.RWMutex
	snap snapshot

	refreshes singleflight.Group
}

// NewCatalogService creates a catalog service with an empty snapshot.
// Call Refresh to load it.
func NewCatalogService(p provider.Provider, cfg Config, logger *slog.Logger) *CatalogService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = listing.DefaultPageSize
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 15 * time.Second
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = "unknown"
	}
	return &CatalogService{provider: p, cfg: cfg, logger: logger}
}

// Refresh reloads courses and categories in parallel. Concurrent calls
// share one load. On failure the previous snapshot stays in place.
func (s *CatalogService) Refresh(ctx context.Context) error {
	_, err, shared := s.refreshes.Do("snapshot", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RefreshTimeout)
		defer cancel()
		return nil, s.load(loadCtx)
	})
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight snapshot refresh")
	}
	return err
}

func (s *CatalogService) load(ctx context.Context) (err error) {
	ctx, span := tracing.Start(ctx, tracerName, "catalog.Refresh",
		attribute.String("catalog.provider", s.cfg.ProviderName))
	defer func() { tracing.End(span, err) }()

	var (
		courses    []domain.Course
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = s.provider.GetAllCourses(gctx)
		if err != nil {
			s.fetchFailed(gctx, "GetAllCourses", err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.provider.GetAllCategories(gctx)
		if err != nil {
			s.fetchFailed(gctx, "GetAllCategories", err)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		snapshotRefreshes.WithLabelValues("failure").Inc()
		return apperrors.ServiceUnavailable(fmt.Sprintf("refresh catalog from %s provider: %v", s.cfg.ProviderName, err))
	}

	s.mu.Lock()
	s.snap = snapshot{courses: courses, categories: categories, loadedAt: time.Now().UTC()}
	s.mu.Unlock()

	snapshotCourses.Set(float64(len(courses)))
	snapshotRefreshes.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("catalog.courses", len(courses)))
	s.logger.InfoContext(ctx, "catalog snapshot refreshed",
		slog.String("provider", s.cfg.ProviderName),
		slog.Int("courses", len(courses)),
		slog.Int("categories", len(categories)),
	)
	return nil
}

// Run refreshes the snapshot every RefreshInterval until ctx is done.
func (s *CatalogService) Run(ctx context.Context) {
	if s.cfg.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.WarnContext(ctx, "periodic catalog refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// LoadedAt returns when the snapshot was last replaced; zero before the
// first successful load.
func (s *CatalogService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.loadedAt
}

func (s *CatalogService) current() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// ListCourses runs the listing pipeline. A non-empty search term is sent
// to the provider; if that fails the snapshot is searched instead.
func (s *CatalogService) ListCourses(ctx context.Context, p listing.Params) listing.Result {
	start := time.Now()
	if p.PageSize <= 0 {
		p.PageSize = s.cfg.PageSize
	}

	courses := s.current().courses
	searched := "false"
	if term := strings.TrimSpace(p.Search); term != "" {
		searched = "true"
		found, err := s.search(ctx, term)
		if err != nil {
			s.fetchFailed(ctx, "SearchCourses", err)
		} else {
			courses = found
		}
	}

	res := listing.Run(courses, p)
	listingDuration.WithLabelValues(string(listing.ParseSortKey(string(p.Sort))), searched).
		Observe(time.Since(start).Seconds())
	return res
}

func (s *CatalogService) search(ctx context.Context, term string) (courses []domain.Course, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "catalog.SearchCourses",
		attribute.String("catalog.provider", s.cfg.ProviderName))
	defer func() { tracing.End(span, err) }()

	return s.provider.SearchCourses(ctx, term)
}

// GetCourse finds a course by id or slug.
func (s *CatalogService) GetCourse(_ context.Context, idOrSlug string) (*domain.Course, error) {
	snap := s.current()
	for i := range snap.courses {
		if snap.courses[i].ID == idOrSlug {
			c := snap.courses[i]
			return &c, nil
		}
	}
	for i := range snap.courses {
		if snap.courses[i].Slug == idOrSlug {
			c := snap.courses[i]
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("course", idOrSlug)
}

// ListCategories returns the categories with CourseCount taken from the
// snapshot. When the provider has no category list, categories are derived
// from the courses.
func (s *CatalogService) ListCategories(_ context.Context) []domain.Category {
	snap := s.current()

	counts := make(map[string]int)
	for _, c := range snap.courses {
		if c.Category != "" {
			counts[c.Category]++
		}
	}

	if len(snap.categories) == 0 {
		out := make([]domain.Category, 0, len(counts))
		for name, n := range counts {
			sl := slug.Generate(name)
			out = append(out, domain.Category{ID: sl, Name: name, Slug: sl, CourseCount: n})
		}
		slices.SortFunc(out, func(a, b domain.Category) int {
			return strings.Compare(a.Name, b.Name)
		})
		return out
	}

	out := make([]domain.Category, len(snap.categories))
	for i, c := range snap.categories {
		c.CourseCount = counts[c.Name]
		out[i] = c
	}
	return out
}

// Facets counts the snapshot per level, tier and category.
func (s *CatalogService) Facets(_ context.Context) domain.Facets {
	snap := s.current()

	f := domain.Facets{
		Total:    len(snap.courses),
		Levels:   make(map[domain.Level]int, len(domain.Levels)),
		Tiers:    map[string]int{string(listing.TierFree): 0, string(listing.TierPaid): 0},
		Category: make(map[string]int),
	}
	for _, l := range domain.Levels {
		f.Levels[l] = 0
	}
	for _, c := range snap.courses {
		f.Levels[c.Level]++
		if c.IsFree {
			f.Tiers[string(listing.TierFree)]++
		} else {
			f.Tiers[string(listing.TierPaid)]++
		}
		if c.Category != "" {
			f.Category[c.Category]++
		}
	}
	return f
}

// Ping checks the provider.
func (s *CatalogService) Ping(ctx context.Context) error {
	return s.provider.Ping(ctx)
}

func (s *CatalogService) fetchFailed(ctx context.Context, op string, err error) {
	providerFailures.WithLabelValues(s.cfg.ProviderName, op).Inc()
	s.logger.ErrorContext(ctx, "course provider fetch failed",
		slog.String("provider", s.cfg.ProviderName),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
