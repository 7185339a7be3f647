package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wise004/Edupress-sub001/pkg/health"
	"github.com/wise004/Edupress-sub001/pkg/middleware"
	"github.com/wise004/Edupress-sub001/services/cart/internal/domain"
	redisrepo "github.com/wise004/Edupress-sub001/services/cart/internal/repository/redis"
	"github.com/wise004/Edupress-sub001/services/cart/internal/service"
)

// ============================================================================
// Test helpers
// ============================================================================

type recordingPublisher struct {
	mu      sync.Mutex
	updated []int
	cleared []string
}

func (p *recordingPublisher) PublishCartUpdated(_ context.Context, cart *domain.Cart) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, cart.Version)
	return nil
}

func (p *recordingPublisher) PublishCartCleared(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared = append(p.cleared, userID)
	return nil
}

func setupRouter(t *testing.T) (http.Handler, *recordingPublisher) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &recordingPublisher{}
	svc := service.NewCartService(redisrepo.NewCartRepository(client, time.Hour), pub, logger, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := NewRouter(ctx, svc, health.NewHandler(), RouterConfig{CORS: middleware.DefaultCORSConfig()}, logger)
	return router, pub
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type cartBody struct {
	UserID    string `json:"user_id"`
	PromoCode string `json:"promo_code"`
	Version   int    `json:"version"`
	Items     []struct {
		CourseID string `json:"course_id"`
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Totals struct {
		Subtotal  string `json:"subtotal"`
		Discount  string `json:"discount"`
		Total     string `json:"total"`
		ItemCount int    `json:"item_count"`
	} `json:"totals"`
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("X-User-ID", "user-123")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decode(t, rec)
	var c cartBody
	require.NoError(t, json.Unmarshal(env.Data, &c))
	return c
}

// ============================================================================
// Tests
// ============================================================================

func TestCart_MissingUserHeader(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_HEADER", env.Error.Code)
}

func TestCart_GetEmpty(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/cart", "")

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	c := decodeCart(t, rec)
	assert.Equal(t, "user-123", c.UserID)
	assert.Empty(t, c.Items)
	assert.Equal(t, "0", c.Totals.Subtotal)
	assert.Equal(t, "0", c.Totals.Total)
}

func TestCart_TotalsWithDiscountedPriceAndPromo(t *testing.T) {
	router, pub := setupRouter(t)

	c := decodeCart(t, do(t, router, http.MethodPut, "/api/v1/cart/items/42",
		`{"title":"Go for Backend Engineers","price":100,"discounted_price":80,"quantity":2}`))
	assert.Equal(t, "160", c.Totals.Subtotal)
	assert.Equal(t, 1, c.Version)

	c = decodeCart(t, do(t, router, http.MethodPost, "/api/v1/cart/promo", `{"code":"demo20"}`))

	assert.Equal(t, domain.PromoDemo20, c.PromoCode)
	assert.Equal(t, "160", c.Totals.Subtotal)
	assert.Equal(t, "32", c.Totals.Discount)
	assert.Equal(t, "128", c.Totals.Total)
	assert.Equal(t, 2, c.Totals.ItemCount)
	assert.Equal(t, []int{1, 2}, pub.updated)
}

func TestCart_SetItemDefaultsQuantityAndReplacesInPlace(t *testing.T) {
	router, _ := setupRouter(t)

	do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":"149.99"}`)
	do(t, router, http.MethodPut, "/api/v1/cart/items/2", `{"title":"Python","price":"69"}`)
	c := decodeCart(t, do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React v2","price":"149.99"}`))

	require.Len(t, c.Items, 2)
	assert.Equal(t, "1", c.Items[0].CourseID)
	assert.Equal(t, "React v2", c.Items[0].Title)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "218.99", c.Totals.Total)
}

func TestCart_SetItemZeroQuantityRemoves(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":10}`)

	c := decodeCart(t, do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":10,"quantity":0}`))

	assert.Empty(t, c.Items)
}

func TestCart_SetItemValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing title", `{"price":10}`, "VALIDATION_ERROR"},
		{"quantity too large", `{"title":"x","price":10,"quantity":101}`, "VALIDATION_ERROR"},
		{"malformed json", `{"title":`, "INVALID_INPUT"},
		{"negative price", `{"title":"x","price":-5}`, "VALIDATION_ERROR"},
		{"price too large", `{"title":"x","price":100000.5}`, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPut, "/api/v1/cart/items/1", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestCart_UpdateQuantity(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":10}`)

	c := decodeCart(t, do(t, router, http.MethodPatch, "/api/v1/cart/items/1", `{"quantity":3}`))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "30", c.Totals.Total)

	c = decodeCart(t, do(t, router, http.MethodPatch, "/api/v1/cart/items/1", `{"quantity":0}`))
	assert.Empty(t, c.Items)
}

func TestCart_UpdateQuantityUnknownItem(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodPatch, "/api/v1/cart/items/404", `{"quantity":1}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec).Error.Code)
}

func TestCart_RemoveItem(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":10}`)

	c := decodeCart(t, do(t, router, http.MethodDelete, "/api/v1/cart/items/1", ""))
	assert.Empty(t, c.Items)

	rec := do(t, router, http.MethodDelete, "/api/v1/cart/items/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_UnknownPromo(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/cart/promo", `{"code":"FREE100"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	assert.Contains(t, env.Error.Message, "unknown promo code")
}

func TestCart_ClearPromo(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":50}`)
	do(t, router, http.MethodPost, "/api/v1/cart/promo", `{"code":"DEMO20"}`)

	c := decodeCart(t, do(t, router, http.MethodDelete, "/api/v1/cart/promo", ""))

	assert.Empty(t, c.PromoCode)
	assert.Equal(t, "0", c.Totals.Discount)
	assert.Equal(t, "50", c.Totals.Total)
}

func TestCart_ClearCart(t *testing.T) {
	router, pub := setupRouter(t)
	do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":50}`)

	rec := do(t, router, http.MethodDelete, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user-123"}, pub.cleared)

	c := decodeCart(t, do(t, router, http.MethodGet, "/api/v1/cart", ""))
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Version)
}

func TestCart_RejectsNonJSONBody(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/promo", strings.NewReader("code=DEMO20"))
	req.Header.Set("X-User-ID", "user-123")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCart_CartsArePerUser(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodPut, "/api/v1/cart/items/1", `{"title":"React","price":50}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "someone-else")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	c := decodeCart(t, rec)
	assert.Equal(t, "someone-else", c.UserID)
	assert.Empty(t, c.Items)
}

func TestHealthLive(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
