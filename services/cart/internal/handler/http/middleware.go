package http

import (
	"net/http"
	"strings"

	"github.com/wise004/Edupress-sub001/pkg/httputil"
	"github.com/wise004/Edupress-sub001/pkg/logger"
)

// UserHeader carries the shopper's identity, set by the fronting proxy.
const UserHeader = "X-User-ID"

// RequireUser rejects requests without the X-User-ID header with 400 and
// stores the user ID in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := httputil.RequireHeader(w, r, UserHeader)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(logger.WithUserID(r.Context(), uid)))
	})
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
