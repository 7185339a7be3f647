package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/wise004/Edupress-sub001/pkg/kafka"
	"github.com/wise004/Edupress-sub001/pkg/logger"
	"github.com/wise004/Edupress-sub001/services/cart/internal/domain"
)

// Kafka topics for cart domain events.
var (
	TopicCartUpdated = pkgkafka.Topic("cart", "updated")
	TopicCartCleared = pkgkafka.Topic("cart", "cleared")
)

// Event types, one per topic.
const (
	EventCartUpdated = "cart.updated"
	EventCartCleared = "cart.cleared"
)

// AggregateTypeCart is the aggregate type of every cart event.
const AggregateTypeCart = "cart"

// SourceCartService identifies events originating from the cart service.
const SourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID    string          `json:"user_id"`
	Version   int             `json:"version"`
	Items     []CartItemData  `json:"items"`
	ItemCount int             `json:"item_count"`
	PromoCode string          `json:"promo_code,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	CourseID  string          `json:"course_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// Producer publishes cart domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the cart service.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishCartUpdated publishes a cart.updated event carrying the totals.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			CourseID:  item.CourseID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice(),
			Quantity:  item.Quantity,
		}
	}

	totals := cart.Totals()
	data := CartUpdatedData{
		UserID:    cart.UserID,
		Version:   cart.Version,
		Items:     items,
		ItemCount: totals.ItemCount,
		PromoCode: totals.PromoCode,
		Subtotal:  totals.Subtotal,
		Discount:  totals.Discount,
		Total:     totals.Total,
		Currency:  cart.Currency,
	}

	meta := map[string]string{
		pkgkafka.MetadataCurrency:  cart.Currency,
		pkgkafka.MetadataPromoCode: totals.PromoCode,
	}
	if err := p.publish(ctx, TopicCartUpdated, EventCartUpdated, cart.UserID, data, meta); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", cart.UserID),
		slog.Int("item_count", totals.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	if err := p.publish(ctx, TopicCartCleared, EventCartCleared, userID, CartClearedData{UserID: userID}, nil); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("user_id", userID),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, eventType, userID string, data any, meta map[string]string) error {
	event, err := pkgkafka.NewEvent(eventType, userID, AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	for k, v := range meta {
		event.WithMetadata(k, v)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}
