package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wise004/Edupress-sub001/pkg/errors"
	"github.com/wise004/Edupress-sub001/pkg/logger"
	"github.com/wise004/Edupress-sub001/pkg/pagination"
	"github.com/wise004/Edupress-sub001/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// --- WriteJSON ---

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "42"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"42"}}`, rec.Body.String())
}

// --- WritePage ---

func TestWritePage_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	res := pagination.NewResult([]string{"a"}, 13, pagination.Params{Page: 2, PerPage: 12, Offset: 12})
	WritePage(rec, res)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":["a"],"total_count":13,"page":2,"per_page":12,"total_pages":2,"has_next":false,"has_prev":true}`,
		rec.Body.String())
}

func TestWritePage_NilDataIsEmptyArray(t *testing.T) {
	rec := httptest.NewRecorder()
	WritePage(rec, pagination.Result[int]{Page: 1, PerPage: 12})
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

// --- WriteError ---

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", apperrors.NotFound("course", "7"), http.StatusNotFound, "NOT_FOUND"},
		{"app conflict", apperrors.Conflict("stale cart"), http.StatusConflict, "CONFLICT"},
		{"sentinel not found", fmt.Errorf("lookup: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"sentinel exists", apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"sentinel conflict", apperrors.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"sentinel invalid", apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"sentinel unavailable", apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/7", nil)
			WriteError(rec, req, tt.err, testLogger())

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestWriteError_UnknownErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(rec, req, fmt.Errorf("dial tcp 10.0.0.1:5432: refused"), testLogger())

	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestWriteError_RequestID(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	rec := httptest.NewRecorder()
	WriteError(rec, req, apperrors.NotFound("course", "1"), testLogger())
	assert.Equal(t, "corr-123", decode(t, rec).Error.RequestID)

	rec = httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.ErrNotFound, testLogger())
	assert.NotContains(t, rec.Body.String(), "request_id")
}

// --- WriteValidationError ---

type sortQuery struct {
	Sort string `query:"sort" validate:"oneof=newest popular"`
}

func TestWriteValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(sortQuery{Sort: "oldest"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "sort")
}

func TestWriteValidationError_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, fmt.Errorf("decode request body: unexpected EOF"))

	resp := decode(t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unexpected EOF")
}

// --- RequireHeader ---

func TestRequireHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "  user-1 ")

	rec := httptest.NewRecorder()
	v, ok := RequireHeader(rec, req, "X-User-ID")
	assert.True(t, ok)
	assert.Equal(t, "user-1", v)

	rec = httptest.NewRecorder()
	_, ok = RequireHeader(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "X-User-ID")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_HEADER", decode(t, rec).Error.Code)
}
