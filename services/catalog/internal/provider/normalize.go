package provider

import (
	"github.com/wise004/Edupress-sub001/pkg/slug"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

// Normalize converts raw records into courses. For every concept with two
// field names the first present, non-null value wins; absent numbers are 0
// and absent flags are false.
func Normalize(raws []RawCourse) []domain.Course {
	out := make([]domain.Course, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizeCourse(r))
	}
	return out
}

// NormalizeCourse converts one raw record.
func NormalizeCourse(r RawCourse) domain.Course {
	c := domain.Course{
		ID:              string(r.ID),
		Title:           r.Title,
		Description:     firstString(r.Description, r.ShortDescription),
		Instructor:      firstString(refName(r.Instructor), r.InstructorName),
		Thumbnail:       firstString(r.ThumbnailImage, r.Thumbnail, r.ThumbnailURL),
		Rating:          firstFloat(r.AverageRating, r.Rating),
		ReviewCount:     firstInt(r.TotalRatings, r.ReviewCount, r.RatingCount),
		Category:        firstString(r.CategoryName, refName(r.Category)),
		Level:           normalizeLevel(firstString(r.Level, r.DifficultyLevel)),
		EnrollmentCount: firstInt(r.EnrollmentCount, r.Students),
		DurationMinutes: firstInt(r.Duration),
		Lessons:         firstInt(r.Lessons, r.TotalLessons),
	}

	// A discounted price is what the learner pays; the list price becomes
	// the original price unless one is given explicitly.
	price := firstFloat(r.Price)
	switch {
	case r.DiscountedPrice != nil:
		c.Price = *r.DiscountedPrice
		if r.OriginalPrice != nil {
			c.OriginalPrice = floatPtr(*r.OriginalPrice)
		} else if r.Price != nil {
			c.OriginalPrice = floatPtr(price)
		}
	default:
		c.Price = price
		if r.OriginalPrice != nil {
			c.OriginalPrice = floatPtr(*r.OriginalPrice)
		}
	}

	if r.IsFree != nil {
		c.IsFree = *r.IsFree
	}

	c.Slug = slug.Generate(c.Title)
	if c.Slug == "" {
		c.Slug = "course-" + slug.Generate(c.ID)
	}
	return c
}

// NormalizeCategories converts raw categories. The id falls back to the
// slug of the name.
func NormalizeCategories(raws []RawCategory) []domain.Category {
	out := make([]domain.Category, 0, len(raws))
	for _, r := range raws {
		c := domain.Category{
			ID:          string(r.ID),
			Name:        r.Name,
			Slug:        slug.Generate(r.Name),
			Description: r.Description,
			Icon:        r.Icon,
			Color:       r.Color,
		}
		if c.ID == "" {
			c.ID = c.Slug
		}
		out = append(out, c)
	}
	return out
}

func normalizeLevel(s string) domain.Level {
	if l, ok := domain.ParseLevel(s); ok {
		return l
	}
	return domain.LevelBeginner
}

func refName(r *NameRef) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func floatPtr(v float64) *float64 { return &v }
