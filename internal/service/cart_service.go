package service

import (
	"errors"
	"time"

	"tumaini/internal/models"
	"tumaini/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidCoupon = errors.New("invalid coupon code")

// CartItem is one line of a cart: a price snapshot and a quantity.
type CartItem struct {
	ProductID uint  `json:"product_id"`
	Price     int64 `json:"price"`
	Quantity  int   `json:"quantity"`
}

// CartTotals is the server-authoritative result of cart arithmetic.
type CartTotals struct {
	Subtotal   int64 `json:"subtotal"`
	Discount   int64 `json:"discount"`
	Total      int64 `json:"total"`
	PercentOff int64 `json:"percent_off,omitempty"`
}

// CartService owns cart arithmetic so handlers never trust client-side totals.
type CartService struct {
	couponRepo *repository.CouponRepository
}

func NewCartService(couponRepo *repository.CouponRepository) *CartService {
	return &CartService{couponRepo: couponRepo}
}

// NormalizeQuantity coerces invalid quantities to the minimum of 1.
func NormalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// Subtotal sums price x quantity over all items, with quantities normalized.
func Subtotal(items []CartItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price * int64(NormalizeQuantity(it.Quantity))
	}
	return sum
}

// ApplyCoupon computes the discount for a subtotal: floor(subtotal * percent / 100).
func ApplyCoupon(subtotal int64, c *models.Coupon) int64 {
	discount := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(c.PercentOff)).
		Div(decimal.NewFromInt(100))
	return discount.IntPart()
}

// Totals computes subtotal, discount, and total for the cart. An unknown,
// inactive, or expired coupon code returns ErrInvalidCoupon with the totals
// unchanged (no discount applied).
func (s *CartService) Totals(items []CartItem, couponCode string) (CartTotals, error) {
	t := CartTotals{Subtotal: Subtotal(items)}
	t.Total = t.Subtotal
	if couponCode == "" {
		return t, nil
	}
	coupon, err := s.couponRepo.GetByCode(couponCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return t, ErrInvalidCoupon
		}
		return t, err
	}
	if !coupon.Usable(time.Now()) {
		return t, ErrInvalidCoupon
	}
	t.Discount = ApplyCoupon(t.Subtotal, coupon)
	t.Total = t.Subtotal - t.Discount
	t.PercentOff = coupon.PercentOff
	return t, nil
}
