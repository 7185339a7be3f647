package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/wise004/Edupress-sub001/pkg/kafka"
)

// TopicCourseChanged carries every change to the published course set.
var TopicCourseChanged = pkgkafka.Topic("course", "changed")

// Event types accepted on TopicCourseChanged.
const (
	EventCourseCreated   = "course.created"
	EventCourseUpdated   = "course.updated"
	EventCourseDeleted   = "course.deleted"
	EventCourseCatalog   = "course.catalog_changed"
	EventCategoryChanged = "category.changed"
)

// CourseChangedData is the payload of a course change event.
type CourseChangedData struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Refresher reloads the catalog snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Consumer refreshes the catalog when the course backend reports a change.
type Consumer struct {
	catalog Refresher
	logger  *slog.Logger
}

// NewConsumer creates a course change consumer.
func NewConsumer(catalog Refresher, logger *slog.Logger) *Consumer {
	return &Consumer{catalog: catalog, logger: logger}
}

// Handle processes one event. The snapshot is rebuilt as a whole, so every
// known type triggers the same refresh.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case EventCourseCreated, EventCourseUpdated, EventCourseDeleted:
		var data CourseChangedData
		if err := event.UnmarshalData(&data); err != nil {
			return err
		}
		c.logger.InfoContext(ctx, "course changed, refreshing catalog",
			slog.String("event_type", event.EventType),
			slog.String("course_id", data.ID),
		)
	case EventCourseCatalog, EventCategoryChanged:
		c.logger.InfoContext(ctx, "catalog changed, refreshing",
			slog.String("event_type", event.EventType),
		)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if err := c.catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh catalog after %s: %w", event.EventType, err)
	}
	return nil
}
