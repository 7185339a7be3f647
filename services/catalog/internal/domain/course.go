package domain

import (
	"strconv"
	"strings"
)

// Level is the difficulty of a course.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Levels lists every level in ascending difficulty.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseLevel matches s against the levels ignoring case, so the backend's
// BEGINNER spelling is accepted.
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, true
		}
	}
	return "", false
}

// Course is a normalized catalog entry. Providers build it through
// provider.Normalize; nothing downstream deals with alternate field names.
type Course struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Instructor      string   `json:"instructor,omitempty"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
	Price           float64  `json:"price"`
	OriginalPrice   *float64 `json:"original_price,omitempty"`
	Rating          float64  `json:"rating"`
	ReviewCount     int      `json:"review_count"`
	Category        string   `json:"category"`
	Level           Level    `json:"level"`
	EnrollmentCount int      `json:"enrollment_count"`
	IsFree          bool     `json:"is_free"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Lessons         int      `json:"lessons,omitempty"`
}

// NumericID returns the id as an integer, or 0 when it is not numeric.
func (c Course) NumericID() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(c.ID), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// DiscountPercent is the saving against OriginalPrice rounded down, 0 when
// there is no higher original price.
func (c Course) DiscountPercent() int {
	if c.OriginalPrice == nil || *c.OriginalPrice <= 0 || *c.OriginalPrice <= c.Price {
		return 0
	}
	return int((*c.OriginalPrice - c.Price) / *c.OriginalPrice * 100)
}

// Category groups courses. CourseCount is derived from the current
// collection, not trusted from the source.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	CourseCount int    `json:"course_count"`
}

// Facets holds per-value counts for the sidebar filters.
type Facets struct {
	Total    int            `json:"total"`
	Levels   map[Level]int  `json:"levels"`
	Tiers    map[string]int `json:"tiers"`
	Category map[string]int `json:"categories"`
}
