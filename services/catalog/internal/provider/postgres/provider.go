// Package postgres reads the catalog from PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/wise004/Edupress-sub001/pkg/database"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations rooted at the migrations dir.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies the catalog schema.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) error {
	return database.Migrate(ctx, db, Migrations(), logger)
}

const courseColumns = `c.id::text, c.title, c.description, c.instructor, c.thumbnail,
	c.price::float8, c.original_price::float8, c.is_free,
	c.average_rating, c.total_ratings, c.enrollment_count,
	c.level, c.duration_minutes, c.lessons, cat.name`

const listCoursesSQL = `SELECT ` + courseColumns + `
FROM courses c
LEFT JOIN categories cat ON cat.id = c.category_id
WHERE c.status = 'PUBLISHED'
ORDER BY c.id`

const searchCoursesSQL = `SELECT ` + courseColumns + `
FROM courses c
LEFT JOIN categories cat ON cat.id = c.category_id
WHERE c.status = 'PUBLISHED'
  AND (c.title ILIKE '%' || $1 || '%' OR c.description ILIKE '%' || $1 || '%')
ORDER BY c.id`

const listCategoriesSQL = `SELECT id::text, name, description, icon, color
FROM categories
ORDER BY name`

// Provider implements provider.Provider over a pgx pool.
type Provider struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

var _ provider.Provider = (*Provider)(nil)

// New creates a postgres provider.
func New(db database.DBTX, tracer *database.QueryTracer) *Provider {
	if tracer == nil {
		tracer = database.NewQueryTracer("postgresql", 0, nil)
	}
	return &Provider{db: db, tracer: tracer}
}

// GetAllCourses returns every published course ordered by id.
func (p *Provider) GetAllCourses(ctx context.Context) (courses []domain.Course, err error) {
	ctx, end := p.tracer.Trace(ctx, "GetAllCourses", listCoursesSQL)
	defer func() { end(err) }()

	rows, err := p.db.Query(ctx, listCoursesSQL)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	return scanCourses(rows)
}

// SearchCourses matches term case-insensitively against title and
// description.
func (p *Provider) SearchCourses(ctx context.Context, term string) (courses []domain.Course, err error) {
	ctx, end := p.tracer.Trace(ctx, "SearchCourses", searchCoursesSQL)
	defer func() { end(err) }()

	rows, err := p.db.Query(ctx, searchCoursesSQL, escapeLike(term))
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return scanCourses(rows)
}

// GetAllCategories returns the categories ordered by name.
func (p *Provider) GetAllCategories(ctx context.Context) (categories []domain.Category, err error) {
	ctx, end := p.tracer.Trace(ctx, "GetAllCategories", listCategoriesSQL)
	defer func() { end(err) }()

	rows, err := p.db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var raws []provider.RawCategory
	for rows.Next() {
		var (
			r                        provider.RawCategory
			id                       string
			description, icon, color *string
		)
		if err := rows.Scan(&id, &r.Name, &description, &icon, &color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		r.ID = provider.FlexString(id)
		r.Description = deref(description)
		r.Icon = deref(icon)
		r.Color = deref(color)
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return provider.NormalizeCategories(raws), nil
}

// Ping checks the pool.
func (p *Provider) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func scanCourses(rows pgx.Rows) ([]domain.Course, error) {
	defer rows.Close()

	var raws []provider.RawCourse
	for rows.Next() {
		var (
			r                                 provider.RawCourse
			id                                string
			instructor, thumbnail, level, cat *string
		)
		err := rows.Scan(
			&id, &r.Title, &r.Description, &instructor, &thumbnail,
			&r.Price, &r.OriginalPrice, &r.IsFree,
			&r.AverageRating, &r.TotalRatings, &r.EnrollmentCount,
			&level, &r.Duration, &r.Lessons, &cat,
		)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		r.ID = provider.FlexString(id)
		r.InstructorName = deref(instructor)
		r.ThumbnailImage = deref(thumbnail)
		r.Level = deref(level)
		r.CategoryName = deref(cat)
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return provider.Normalize(raws), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// escapeLike escapes the ILIKE wildcards in a user supplied term.
func escapeLike(term string) string {
	out := make([]rune, 0, len(term))
	for _, r := range term {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
