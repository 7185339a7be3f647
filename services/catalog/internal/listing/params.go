package listing

import "strings"

// All disables the category or level filter.
const All = "all"

// DefaultPageSize is the number of courses on one catalog page.
const DefaultPageSize = 12

// SortKey selects the listing order.
type SortKey string

const (
	SortPopular   SortKey = "popular"
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

// SortKeys lists the accepted sort keys, default first.
var SortKeys = []SortKey{SortPopular, SortNewest, SortPriceLow, SortPriceHigh, SortRating}

// ParseSortKey returns the matching key, or SortPopular for anything else.
func ParseSortKey(s string) SortKey {
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k
		}
	}
	return SortPopular
}

// PriceTier filters on the free flag.
type PriceTier string

const (
	TierAll  PriceTier = "all"
	TierFree PriceTier = "free"
	TierPaid PriceTier = "paid"
)

// Params is the user's current listing selection. It is a plain value:
// callers own it and pass it into Run.
type Params struct {
	Search   string    `json:"search"`
	Category string    `json:"category"`
	Level    string    `json:"level"`
	Price    PriceTier `json:"price"`
	Sort     SortKey   `json:"sort"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// DefaultParams is the selection a fresh page starts with.
func DefaultParams() Params {
	return Params{
		Category: All,
		Level:    All,
		Price:    TierAll,
		Sort:     SortPopular,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// The With* filter setters return a copy with the page reset to 1.

func (p Params) WithSearch(term string) Params {
	p.Search = term
	p.Page = 1
	return p
}

func (p Params) WithCategory(category string) Params {
	p.Category = category
	p.Page = 1
	return p
}

func (p Params) WithLevel(level string) Params {
	p.Level = level
	p.Page = 1
	return p
}

func (p Params) WithPrice(tier PriceTier) Params {
	p.Price = tier
	p.Page = 1
	return p
}

func (p Params) WithSort(key SortKey) Params {
	p.Sort = key
	p.Page = 1
	return p
}

// WithPage changes only the page. Range checks happen in Run.
func (p Params) WithPage(page int) Params {
	p.Page = page
	return p
}

// normalized fills zero values with defaults.
func (p Params) normalized() Params {
	if p.Category == "" {
		p.Category = All
	}
	if p.Level == "" {
		p.Level = All
	}
	if p.Price == "" {
		p.Price = TierAll
	}
	p.Sort = ParseSortKey(string(p.Sort))
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// term is the lower-cased needle. A blank term disables the search
// predicate; otherwise the term is matched as typed, surrounding spaces
// included.
func (p Params) term() string {
	if strings.TrimSpace(p.Search) == "" {
		return ""
	}
	return strings.ToLower(p.Search)
}
