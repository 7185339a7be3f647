package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wise004/Edupress-sub001/pkg/health"
	"github.com/wise004/Edupress-sub001/pkg/middleware"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/service"
)

const serviceName = "catalog"

// RouterConfig holds the HTTP options that come from configuration.
type RouterConfig struct {
	PageSize    int
	CacheMaxAge int
	PprofCIDRs  []string
	// RateLimit is applied per client IP; nil disables it.
	RateLimit *middleware.RateLimitConfig
	CORS      middleware.CORSConfig
}

// NewRouter creates a chi router with all catalog routes registered. ctx
// bounds background work started by the middleware.
func NewRouter(
	ctx context.Context,
	catalogService *service.CatalogService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	courseHandler := NewCourseHandler(catalogService, cfg.PageSize, logger)

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(middleware.RateLimit(ctx, *cfg.RateLimit, logger))
		}

		// Catalog reads
		r.Group(func(r chi.Router) {
			if cfg.CacheMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CacheMaxAge))
			}
			r.Get("/api/v1/courses", courseHandler.ListCourses)
			r.Get("/api/v1/courses/{idOrSlug}", courseHandler.GetCourse)
			r.Get("/api/v1/categories", courseHandler.ListCategories)
			r.Get("/api/v1/facets", courseHandler.Facets)
		})

		r.With(middleware.NoStore).Post("/api/v1/admin/refresh", courseHandler.Refresh)
	})

	return r
}
