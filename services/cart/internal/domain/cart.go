package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PromoDemo20 takes 20% off the subtotal.
const PromoDemo20 = "DEMO20"

var promoRates = map[string]decimal.Decimal{
	PromoDemo20: decimal.RequireFromString("0.20"),
}

// ErrUnknownPromo is returned by ApplyPromo for a code that is not offered.
var ErrUnknownPromo = errors.New("unknown promo code")

// Cart is one user's course cart.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	PromoCode string     `json:"promo_code,omitempty"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// CartItem is a course line. CourseID is unique within a cart.
type CartItem struct {
	CourseID        string           `json:"course_id"`
	Title           string           `json:"title"`
	Instructor      string           `json:"instructor,omitempty"`
	Thumbnail       string           `json:"thumbnail,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Quantity        int              `json:"quantity"`
}

// UnitPrice is the discounted price when one is set, otherwise the price.
func (i CartItem) UnitPrice() decimal.Decimal {
	if i.DiscountedPrice != nil {
		return *i.DiscountedPrice
	}
	return i.Price
}

// LineTotal is UnitPrice times Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Totals is the priced summary of a cart, rounded to cents.
// Subtotal always equals Discount plus Total.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	PromoCode string          `json:"promo_code,omitempty"`
}

// Totals prices the cart. The promo discount applies to the subtotal.
func (c *Cart) Totals() Totals {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	subtotal = subtotal.Round(2)

	discount := decimal.Zero
	if rate, ok := promoRates[c.PromoCode]; ok {
		discount = subtotal.Mul(rate).Round(2)
	}

	return Totals{
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     subtotal.Sub(discount),
		ItemCount: c.ItemCount(),
		PromoCode: c.PromoCode,
	}
}

// ItemCount returns the sum of the line quantities.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItemIndex returns the index of the line for courseID, or -1.
func (c *Cart) FindItemIndex(courseID string) int {
	for i := range c.Items {
		if c.Items[i].CourseID == courseID {
			return i
		}
	}
	return -1
}

// SetItem replaces the line with the same CourseID in place, or appends
// it. A quantity of zero or less removes the line.
func (c *Cart) SetItem(item CartItem) {
	if item.Quantity <= 0 {
		c.RemoveItem(item.CourseID)
		return
	}
	if i := c.FindItemIndex(item.CourseID); i >= 0 {
		c.Items[i] = item
		return
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets the quantity of an existing line; zero or less
// removes it. It reports whether the line existed.
func (c *Cart) UpdateQuantity(courseID string, quantity int) bool {
	i := c.FindItemIndex(courseID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// RemoveItem drops the line for courseID and reports whether it existed.
func (c *Cart) RemoveItem(courseID string) bool {
	i := c.FindItemIndex(courseID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// ApplyPromo sets the promo code. Codes are matched ignoring case and
// surrounding space and stored in canonical form.
func (c *Cart) ApplyPromo(code string) error {
	canonical := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := promoRates[canonical]; !ok {
		return ErrUnknownPromo
	}
	c.PromoCode = canonical
	return nil
}

// ClearPromo removes any applied promo code.
func (c *Cart) ClearPromo() {
	c.PromoCode = ""
}
