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
	"github.com/wise004/Edupress-sub001/services/cart/internal/service"
)

const serviceName = "cart"

// RouterConfig holds the HTTP options that come from configuration.
type RouterConfig struct {
	PprofCIDRs []string
	// RateLimit is applied per client IP; nil disables it.
	RateLimit *middleware.RateLimitConfig
	CORS      middleware.CORSConfig
}

// NewRouter creates a chi router with all cart service routes registered.
func NewRouter(
	ctx context.Context,
	cartService *service.CartService,
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
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(cartService, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(middleware.RateLimit(ctx, *cfg.RateLimit, logger))
		}
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)
		r.Use(RequireUser)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)

		r.Put("/items/{courseId}", cartHandler.SetItem)
		r.Patch("/items/{courseId}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{courseId}", cartHandler.RemoveItem)

		r.Post("/promo", cartHandler.ApplyPromo)
		r.Delete("/promo", cartHandler.ClearPromo)
	})

	return r
}
