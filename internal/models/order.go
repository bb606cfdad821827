package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Reference    string `gorm:"size:64;uniqueIndex;not null" json:"reference"` // ord-<uuid>
	CustomerName string `gorm:"size:128;not null" json:"customer_name"`
	Email        string `gorm:"size:255;index" json:"email"`
	Phone        string `gorm:"size:20" json:"phone"`

	AddressLine string `gorm:"size:255" json:"address_line"`
	City        string `gorm:"size:64" json:"city"`
	Country     string `gorm:"size:64;default:'Kenya'" json:"country"`

	Method        string `gorm:"size:20;not null" json:"method"`       // MPESA | PAYPAL
	Status        string `gorm:"size:20;not null;index" json:"status"` // PROCESSING, SHIPPED, DELIVERED, CANCELLED
	SubtotalCents int64  `gorm:"not null" json:"subtotal_cents"`
	DiscountCents int64  `gorm:"default:0" json:"discount_cents"`
	TotalCents    int64  `gorm:"not null" json:"total_cents"`
	Currency      string `gorm:"size:3;not null;default:'KES'" json:"currency"`
	CouponCode    string `gorm:"size:32" json:"coupon_code,omitempty"`
	Paid          bool   `gorm:"default:false;index" json:"paid"`

	CheckoutRequestID string `gorm:"size:64;index" json:"checkout_request_id,omitempty"`
	ProviderOrderID   string `gorm:"size:64;index" json:"provider_order_id,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem snapshots the product name and price at purchase time so later
// catalog edits don't rewrite history.
type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"not null;index" json:"order_id"`
	ProductID  uint   `gorm:"not null;index" json:"product_id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	PriceCents int64  `gorm:"not null" json:"price_cents"`
	Quantity   int    `gorm:"not null" json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}
