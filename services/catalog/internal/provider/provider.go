// Package provider supplies the course collection to the catalog. Every
// implementation emits raw records that pass through Normalize.
package provider

import (
	"context"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

// Provider kinds accepted by CATALOG_PROVIDER.
const (
	KindMemory   = "memory"
	KindPostgres = "postgres"
	KindUpstream = "upstream"
)

// Provider is the course-data contract. Implementations must tolerate
// repeated calls.
type Provider interface {
	// GetAllCourses returns every published course.
	GetAllCourses(ctx context.Context) ([]domain.Course, error)

	// SearchCourses returns courses whose title or description contains term.
	SearchCourses(ctx context.Context, term string) ([]domain.Course, error)

	// GetAllCategories returns every category. CourseCount is left to the caller.
	GetAllCategories(ctx context.Context) ([]domain.Category, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
