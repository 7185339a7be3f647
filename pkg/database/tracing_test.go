package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestQueryTracer_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	qt := NewQueryTracer("postgresql", 0, nil)

	_, end := qt.Trace(context.Background(), "ListCourses", "SELECT id FROM courses")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.ListCourses", spans[0].Name)

	attrs := map[string]string{}
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "ListCourses", attrs["db.operation"])
	assert.Equal(t, "SELECT id FROM courses", attrs["db.statement"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestQueryTracer_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	qt := NewQueryTracer("postgresql", 0, nil)

	_, end := qt.Trace(context.Background(), "SearchCourses", "SELECT 1")
	end(errors.New("relation does not exist"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "relation does not exist", spans[0].Status.Description)
}

func TestQueryTracer_SlowQueryLog(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	qt := NewQueryTracer("postgresql", time.Nanosecond, logger)

	_, end := qt.Trace(context.Background(), "ListCategories", "SELECT name FROM categories")
	time.Sleep(time.Millisecond)
	end(nil)

	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "ListCategories")
}

func TestQueryTracer_FastQueryNotLogged(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	qt := NewQueryTracer("postgresql", time.Hour, logger)

	_, end := qt.Trace(context.Background(), "ListCategories", "SELECT name FROM categories")
	end(nil)

	assert.Empty(t, buf.String())
}
