package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wise004/Edupress-sub001/pkg/httputil"
	"github.com/wise004/Edupress-sub001/pkg/logger"
	"github.com/wise004/Edupress-sub001/pkg/validator"
	"github.com/wise004/Edupress-sub001/services/cart/internal/domain"
	"github.com/wise004/Edupress-sub001/services/cart/internal/service"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SetItemRequest is the JSON body of PUT /api/v1/cart/items/{courseId}.
// Quantity defaults to 1; zero removes the line.
type SetItemRequest struct {
	Title           string           `json:"title" validate:"required,max=500"`
	Instructor      string           `json:"instructor" validate:"max=200"`
	Thumbnail       string           `json:"thumbnail" validate:"omitempty,url"`
	Price           decimal.Decimal  `json:"price" validate:"gte=0"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price" validate:"omitempty,gte=0"`
	Quantity        *int             `json:"quantity" validate:"omitempty,gte=0,lte=100"`
}

// UpdateQuantityRequest is the JSON body of PATCH /api/v1/cart/items/{courseId}.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=100"`
}

// ApplyPromoRequest is the JSON body of POST /api/v1/cart/promo.
type ApplyPromoRequest struct {
	Code string `json:"code" validate:"required,max=50"`
}

// CartResponse is a cart together with its computed totals.
type CartResponse struct {
	*domain.Cart
	Totals domain.Totals `json:"totals"`
}

func newCartResponse(cart *domain.Cart) CartResponse {
	return CartResponse{Cart: cart, Totals: cart.Totals()}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), logger.UserIDFromContext(r.Context()))
	h.writeCart(w, r, cart, err)
}

// SetItem handles PUT /api/v1/cart/items/{courseId}
func (h *CartHandler) SetItem(w http.ResponseWriter, r *http.Request) {
	var req SetItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.service.SetItem(r.Context(), logger.UserIDFromContext(r.Context()), service.SetItemInput{
		CourseID:        chi.URLParam(r, "courseId"),
		Title:           req.Title,
		Instructor:      req.Instructor,
		Thumbnail:       req.Thumbnail,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Quantity:        quantity,
	})
	h.writeCart(w, r, cart, err)
}

// UpdateItemQuantity handles PATCH /api/v1/cart/items/{courseId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateItemQuantity(r.Context(), logger.UserIDFromContext(r.Context()),
		chi.URLParam(r, "courseId"), req.Quantity)
	h.writeCart(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/cart/items/{courseId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveItem(r.Context(), logger.UserIDFromContext(r.Context()), chi.URLParam(r, "courseId"))
	h.writeCart(w, r, cart, err)
}

// ApplyPromo handles POST /api/v1/cart/promo
func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req ApplyPromoRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.ApplyPromo(r.Context(), logger.UserIDFromContext(r.Context()), req.Code)
	h.writeCart(w, r, cart, err)
}

// ClearPromo handles DELETE /api/v1/cart/promo
func (h *CartHandler) ClearPromo(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ClearPromo(r.Context(), logger.UserIDFromContext(r.Context()))
	h.writeCart(w, r, cart, err)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), logger.UserIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cleared"}})
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(cart)})
}
