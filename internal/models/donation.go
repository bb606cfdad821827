package models

import (
	"time"

	"gorm.io/gorm"
)

type Donation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Reference   string `gorm:"size:64;uniqueIndex;not null" json:"reference"` // don-<uuid>
	DonorName   string `gorm:"size:128" json:"donor_name"`
	Email       string `gorm:"size:255;index" json:"email"`
	Phone       string `gorm:"size:20" json:"phone"` // normalized 2547XXXXXXXX for M-Pesa
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Currency    string `gorm:"size:3;not null;default:'KES'" json:"currency"`
	Method      string `gorm:"size:20;not null;index" json:"method"` // MPESA | PAYPAL
	Status      string `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED, EXPIRED
	Message     string `gorm:"type:text" json:"message"`
	Anonymous   bool   `gorm:"default:false" json:"anonymous"`

	// Provider correlation. CheckoutRequestID identifies a pending STK push;
	// ProviderOrderID is the PayPal order id.
	CheckoutRequestID string `gorm:"size:64;index" json:"checkout_request_id,omitempty"`
	MerchantRequestID string `gorm:"size:64" json:"-"`
	ProviderOrderID   string `gorm:"size:64;index" json:"provider_order_id,omitempty"`
	ReceiptNumber     string `gorm:"size:64" json:"receipt_number,omitempty"`
	FailureReason     string `gorm:"size:255" json:"-"`

	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Donation) TableName() string {
	return "donations"
}
