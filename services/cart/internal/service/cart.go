package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/wise004/Edupress-sub001/pkg/errors"
	"github.com/wise004/Edupress-sub001/services/cart/internal/domain"
	"github.com/wise004/Edupress-sub001/services/cart/internal/repository"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct courses in a cart.
	MaxItemsPerCart = 50
)

// MaxPrice is the highest unit price accepted for a course.
var MaxPrice = decimal.NewFromInt(100_000)

// DefaultCurrency is the currency of every cart.
const DefaultCurrency = "USD"

// EventPublisher publishes cart events. Implemented by *event.Producer.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, userID string) error
}

// SetItemInput holds the parameters for putting a course in the cart.
type SetItemInput struct {
	CourseID        string
	Title           string
	Instructor      string
	Thumbnail       string
	Price           decimal.Decimal
	DiscountedPrice *decimal.Decimal
	Quantity        int
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo      repository.CartRepository
	publisher EventPublisher
	logger    *slog.Logger
	cartTTL   time.Duration
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, publisher EventPublisher, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		cartTTL:   cartTTL,
	}
}

// GetCart retrieves the cart for a user. If no cart exists, returns an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	return s.getOrCreateCart(ctx, userID)
}

// SetItem puts a course line in the cart, replacing an existing line for
// the same course in place. A quantity of zero or less removes the line.
func (s *CartService) SetItem(ctx context.Context, userID string, input SetItemInput) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.CourseID == "" {
		return nil, apperrors.InvalidInput("course id is required")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	if input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Price.GreaterThan(MaxPrice) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("price must not exceed %s", MaxPrice))
	}
	if dp := input.DiscountedPrice; dp != nil && (dp.IsNegative() || dp.GreaterThan(MaxPrice)) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("discounted price must be between 0 and %s", MaxPrice))
	}

	cart, err := s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if input.Quantity > 0 && cart.FindItemIndex(input.CourseID) < 0 && len(cart.Items) >= MaxItemsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		cart.SetItem(domain.CartItem{
			CourseID:        input.CourseID,
			Title:           input.Title,
			Instructor:      input.Instructor,
			Thumbnail:       input.Thumbnail,
			Price:           input.Price,
			DiscountedPrice: input.DiscountedPrice,
			Quantity:        input.Quantity,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item set",
		slog.String("user_id", userID),
		slog.String("course_id", input.CourseID),
		slog.Int("quantity", input.Quantity),
	)
	return cart, nil
}

// UpdateItemQuantity changes the quantity of a line already in the cart.
// A quantity of zero removes it.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, courseID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if courseID == "" {
		return nil, apperrors.InvalidInput("course id is required")
	}
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	cart, err := s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if !cart.UpdateQuantity(courseID, quantity) {
			return apperrors.NotFound("cart item", courseID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", userID),
		slog.String("course_id", courseID),
		slog.Int("quantity", quantity),
	)
	return cart, nil
}

// RemoveItem removes a course from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, courseID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if courseID == "" {
		return nil, apperrors.InvalidInput("course id is required")
	}

	cart, err := s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if !cart.RemoveItem(courseID) {
			return apperrors.NotFound("cart item", courseID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("course_id", courseID),
	)
	return cart, nil
}

// ApplyPromo applies a promo code to the cart. Unknown codes are rejected
// with InvalidInput and leave the cart unchanged.
func (s *CartService) ApplyPromo(ctx context.Context, userID, code string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, err := s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if err := cart.ApplyPromo(code); err != nil {
			if errors.Is(err, domain.ErrUnknownPromo) {
				return apperrors.InvalidInput(fmt.Sprintf("unknown promo code %q", code))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "promo code applied",
		slog.String("user_id", userID),
		slog.String("promo_code", cart.PromoCode),
	)
	return cart, nil
}

// ClearPromo removes the promo code from the cart.
func (s *CartService) ClearPromo(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		cart.ClearPromo()
		return nil
	})
}

// ClearCart removes all items from the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.publisher.PublishCartCleared(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)
	return nil
}

// mutate loads the user's cart, applies fn and saves the result with an
// optimistic version check. A concurrent modification yields Conflict.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	if err := fn(cart); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	if err := s.publisher.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return cart, nil
}

// getOrCreateCart retrieves the cart for a user, creating an empty one if it does not exist.
func (s *CartService) getOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// newEmptyCart creates a new empty cart for the given user.
func (s *CartService) newEmptyCart(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     []domain.CartItem{},
		Currency:  DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}
