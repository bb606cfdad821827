package payment

import (
	"context"
	"errors"
)

// PaymentRequest captures everything a provider needs to initiate collection
// for a donation or shop order.
type PaymentRequest struct {
	Reference   string // our correlation id (donation/order reference)
	AmountCents int64
	Currency    string
	Description string
	// M-Pesa
	Phone       string // normalized 2547XXXXXXXX
	CallbackURL string
	// PayPal
	ReturnURL string
	CancelURL string
}

// PaymentResponse is the provider's synchronous acknowledgment. It is not a
// completed transaction: final success/failure arrives via webhook.
type PaymentResponse struct {
	Reference         string
	Status            string
	CheckoutRequestID string // M-Pesa STK correlation id
	MerchantRequestID string
	ProviderOrderID   string // PayPal order id
	ApprovalURL       string // PayPal buyer approval link
	CustomerMessage   string
}

// PaymentStatus is the result of a provider-side status query.
type PaymentStatus struct {
	Reference  string
	Settled    bool
	Failed     bool
	ResultCode string
	ResultDesc string
}

var ErrNotConfigured = errors.New("payment provider not configured")

// Provider abstracts one upstream payment provider. Initiation is a single
// sequential HTTP chain with no retries; callers decide what to do with
// failures.
type Provider interface {
	Name() string
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	QueryPayment(ctx context.Context, resp PaymentResponse) (*PaymentStatus, error)
}
