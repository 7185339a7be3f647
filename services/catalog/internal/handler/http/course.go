package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wise004/Edupress-sub001/pkg/httputil"
	"github.com/wise004/Edupress-sub001/pkg/pagination"
	"github.com/wise004/Edupress-sub001/pkg/validator"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/listing"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/service"
)

// CourseHandler handles HTTP requests for catalog endpoints.
type CourseHandler struct {
	service  *service.CatalogService
	pageSize int
	logger   *slog.Logger
}

// NewCourseHandler creates a new catalog HTTP handler.
func NewCourseHandler(svc *service.CatalogService, pageSize int, logger *slog.Logger) *CourseHandler {
	if pageSize <= 0 || pageSize > pagination.MaxPerPage {
		pageSize = listing.DefaultPageSize
	}
	return &CourseHandler{
		service:  svc,
		pageSize: pageSize,
		logger:   logger,
	}
}

// --- Request DTOs ---

// ListCoursesQuery holds the listing query parameters. Level accepts the
// enumeration in any case.
type ListCoursesQuery struct {
	Search   string `query:"search" validate:"max=200"`
	Category string `query:"category" validate:"max=100"`
	Level    string `query:"level" validate:"omitempty,oneof=all beginner intermediate advanced"`
	Price    string `query:"price" validate:"omitempty,oneof=all free paid"`
	Sort     string `query:"sort" validate:"omitempty,oneof=popular newest price-low price-high rating"`
	Page     int    `query:"page" validate:"gte=0"`
	PerPage  int    `query:"per_page" validate:"gte=0,lte=100"`
}

// RefreshResponse reports the state after an admin refresh.
type RefreshResponse struct {
	Courses  int       `json:"courses"`
	LoadedAt time.Time `json:"loaded_at"`
}

// --- Handlers ---

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ListCoursesQuery{
		Search:   q.Get("search"),
		Category: strings.TrimSpace(q.Get("category")),
		Level:    strings.ToLower(strings.TrimSpace(q.Get("level"))),
		Price:    strings.ToLower(strings.TrimSpace(q.Get("price"))),
		Sort:     strings.ToLower(strings.TrimSpace(q.Get("sort"))),
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &query.Page},
		{"per_page", &query.PerPage},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: p.name + " must be an integer"},
			})
			return
		}
		*p.dst = n
	}

	if err := validator.Validate(query); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res := h.service.ListCourses(r.Context(), h.toParams(query))
	httputil.WritePage(w, res.Pagination())
}

func (h *CourseHandler) toParams(q ListCoursesQuery) listing.Params {
	p := listing.DefaultParams()
	p.PageSize = h.pageSize
	if q.PerPage > 0 {
		p.PageSize = q.PerPage
	}
	if q.Page > 0 {
		p.Page = q.Page
	}
	p.Search = q.Search
	if q.Category != "" && !strings.EqualFold(q.Category, listing.All) {
		p.Category = q.Category
	}
	if l, ok := domain.ParseLevel(q.Level); ok {
		p.Level = string(l)
	}
	if q.Price != "" {
		p.Price = listing.PriceTier(q.Price)
	}
	p.Sort = listing.ParseSortKey(q.Sort)
	return p
}

// GetCourse handles GET /api/v1/courses/{idOrSlug}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.GetCourse(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: course})
}

// ListCategories handles GET /api/v1/categories
func (h *CourseHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.service.ListCategories(r.Context())
	if cats == nil {
		cats = []domain.Category{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cats})
}

// Facets handles GET /api/v1/facets
func (h *CourseHandler) Facets(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Facets(r.Context())})
}

// Refresh handles POST /api/v1/admin/refresh
func (h *CourseHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: RefreshResponse{
		Courses:  h.service.Facets(r.Context()).Total,
		LoadedAt: h.service.LoadedAt(),
	}})
}
