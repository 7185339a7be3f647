package middleware

import (
	"log/slog"
	"net/http"

	"github.com/wise004/Edupress-sub001/pkg/logger"
)

// UserHeader identifies the cart owner. There is no authentication layer;
// the edge is trusted to set it.
const UserHeader = "X-User-ID"

// RequestLogger stores a request-scoped logger in the context, enriched
// with correlation_id, user_id, trace_id and span_id. Mount it after
// RequestLogging and Tracing so those fields exist.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := r.Header.Get(UserHeader); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
