package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

const upsertCategorySQL = `INSERT INTO categories (name, description, icon, color)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE
SET description = EXCLUDED.description, icon = EXCLUDED.icon, color = EXCLUDED.color`

const upsertCourseSQL = `INSERT INTO courses (id, title, description, instructor, thumbnail,
	price, original_price, is_free, average_rating, total_ratings, enrollment_count,
	level, duration_minutes, lessons, category_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	(SELECT id FROM categories WHERE name = $15))
ON CONFLICT (id) DO UPDATE
SET title = EXCLUDED.title, description = EXCLUDED.description,
	instructor = EXCLUDED.instructor, thumbnail = EXCLUDED.thumbnail,
	price = EXCLUDED.price, original_price = EXCLUDED.original_price,
	is_free = EXCLUDED.is_free, average_rating = EXCLUDED.average_rating,
	total_ratings = EXCLUDED.total_ratings, enrollment_count = EXCLUDED.enrollment_count,
	level = EXCLUDED.level, duration_minutes = EXCLUDED.duration_minutes,
	lessons = EXCLUDED.lessons, category_id = EXCLUDED.category_id,
	status = 'PUBLISHED', updated_at = NOW()`

const resetCourseSeqSQL = `SELECT setval(pg_get_serial_sequence('courses', 'id'), GREATEST(MAX(id), 1)) FROM courses`

// ImportResult reports what Import wrote.
type ImportResult struct {
	Categories int
	Courses    int
	// Skipped counts courses whose id is not a positive integer; the
	// courses table keys on a serial id.
	Skipped int
}

// Import upserts categories and courses in one transaction. Categories
// named by a course but missing from categories are created by name.
func (p *Provider) Import(ctx context.Context, categories []domain.Category, courses []domain.Course) (res ImportResult, err error) {
	ctx, end := p.tracer.Trace(ctx, "Import", upsertCourseSQL)
	defer func() { end(err) }()

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback import: %w", rbErr))
			}
		}
	}()

	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c.Name == "" || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		if _, err = tx.Exec(ctx, upsertCategorySQL, c.Name, nullable(c.Description), nullable(c.Icon), nullable(c.Color)); err != nil {
			return ImportResult{}, fmt.Errorf("upsert category %q: %w", c.Name, err)
		}
		res.Categories++
	}
	for _, c := range courses {
		if c.Category == "" || seen[c.Category] {
			continue
		}
		seen[c.Category] = true
		if _, err = tx.Exec(ctx, upsertCategorySQL, c.Category, nil, nil, nil); err != nil {
			return ImportResult{}, fmt.Errorf("upsert category %q: %w", c.Category, err)
		}
		res.Categories++
	}

	for _, c := range courses {
		id := c.NumericID()
		if id <= 0 {
			res.Skipped++
			continue
		}
		_, err = tx.Exec(ctx, upsertCourseSQL,
			id, c.Title, c.Description, nullable(c.Instructor), nullable(c.Thumbnail),
			c.Price, c.OriginalPrice, c.IsFree, c.Rating, c.ReviewCount, c.EnrollmentCount,
			string(c.Level), c.DurationMinutes, c.Lessons, nullable(c.Category),
		)
		if err != nil {
			return ImportResult{}, fmt.Errorf("upsert course %s: %w", c.ID, err)
		}
		res.Courses++
	}

	if res.Courses > 0 {
		if _, err = tx.Exec(ctx, resetCourseSeqSQL); err != nil {
			return ImportResult{}, fmt.Errorf("reset course sequence: %w", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return ImportResult{}, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
