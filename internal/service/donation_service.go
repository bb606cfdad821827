package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"tumaini/config"
	"tumaini/internal/domain"
	"tumaini/internal/models"
	"tumaini/internal/repository"
	"tumaini/internal/ws"
	"tumaini/pkg/payment"

	"github.com/google/uuid"
)

// DonationInput is what a donor submits. Handlers validate shape; the service
// owns the persist-then-initiate flow.
type DonationInput struct {
	DonorName   string
	Email       string
	Phone       string
	AmountCents int64
	Currency    string
	Method      string
	Message     string
	Anonymous   bool
}

// DonationService orchestrates the donation lifecycle: persist a PENDING
// record, hand it to the payment provider, and record the provider's
// correlation ids. Final state changes come in through webhooks and are
// applied with Complete/Fail.
type DonationService struct {
	cfg       *config.Config
	donations *repository.DonationRepository
	providers map[string]payment.Provider
	feed      *ws.Feed
}

func NewDonationService(cfg *config.Config, donations *repository.DonationRepository, providers map[string]payment.Provider, feed *ws.Feed) *DonationService {
	return &DonationService{cfg: cfg, donations: donations, providers: providers, feed: feed}
}

// MpesaCallbackURL is where Daraja posts STK results.
func (s *DonationService) MpesaCallbackURL() string {
	return s.cfg.Mpesa.CallbackBaseURL + "/api/webhooks/mpesa"
}

// Provider returns the configured provider for a payment method, or
// payment.ErrNotConfigured when the credentials were not supplied.
func (s *DonationService) Provider(method string) (payment.Provider, error) {
	p, ok := s.providers[method]
	if !ok || p == nil {
		return nil, payment.ErrNotConfigured
	}
	return p, nil
}

// Create persists the donation and initiates collection with the selected
// provider. A provider failure marks the donation FAILED and returns the
// provider error for the handler to relay.
func (s *DonationService) Create(ctx context.Context, in DonationInput) (*models.Donation, *payment.PaymentResponse, error) {
	provider, err := s.Provider(in.Method)
	if err != nil {
		return nil, nil, err
	}
	currency := in.Currency
	if currency == "" {
		if in.Method == domain.MethodPayPal {
			currency = domain.CurrencyUSD
		} else {
			currency = domain.CurrencyKES
		}
	}
	d := &models.Donation{
		Reference:   "don-" + uuid.NewString(),
		DonorName:   in.DonorName,
		Email:       in.Email,
		Phone:       in.Phone,
		AmountCents: in.AmountCents,
		Currency:    currency,
		Method:      in.Method,
		Status:      domain.DonationStatusPending,
		Message:     in.Message,
		Anonymous:   in.Anonymous,
	}
	if err := s.donations.Create(d); err != nil {
		return nil, nil, err
	}

	resp, err := provider.InitiatePayment(ctx, payment.PaymentRequest{
		Reference:   d.Reference,
		AmountCents: d.AmountCents,
		Currency:    d.Currency,
		Description: "Tumaini donation",
		Phone:       d.Phone,
		CallbackURL: s.MpesaCallbackURL(),
	})
	if err != nil {
		d.Status = domain.DonationStatusFailed
		d.FailureReason = truncate(err.Error(), 255)
		_ = s.donations.Update(d)
		return d, nil, fmt.Errorf("initiate %s payment: %w", in.Method, err)
	}

	d.CheckoutRequestID = resp.CheckoutRequestID
	d.MerchantRequestID = resp.MerchantRequestID
	d.ProviderOrderID = resp.ProviderOrderID
	if err := s.donations.Update(d); err != nil {
		return nil, nil, err
	}
	log.Printf("[DONATION] initiated reference=%s method=%s amount=%d", d.Reference, d.Method, d.AmountCents)
	return d, resp, nil
}

// Complete settles a donation. Completed records are terminal: calling this
// twice (duplicate webhook delivery) is a no-op.
func (s *DonationService) Complete(d *models.Donation, receiptNumber string) error {
	if d.Status == domain.DonationStatusCompleted {
		return nil
	}
	now := time.Now()
	d.Status = domain.DonationStatusCompleted
	d.ReceiptNumber = receiptNumber
	d.CompletedAt = &now
	if err := s.donations.Update(d); err != nil {
		return err
	}
	name := d.DonorName
	if d.Anonymous || name == "" {
		name = "Anonymous"
	}
	if s.feed != nil {
		s.feed.Broadcast(ws.DonationEvent{
			Reference:   d.Reference,
			DonorName:   name,
			AmountCents: d.AmountCents,
			Currency:    d.Currency,
			Method:      d.Method,
			CompletedAt: now,
		})
	}
	log.Printf("[DONATION] completed reference=%s receipt=%s", d.Reference, receiptNumber)
	return nil
}

// Fail marks a pending donation FAILED. Terminal states are left alone so a
// late failure callback cannot undo a completion.
func (s *DonationService) Fail(d *models.Donation, reason string) error {
	if d.Status != domain.DonationStatusPending {
		return nil
	}
	d.Status = domain.DonationStatusFailed
	d.FailureReason = truncate(reason, 255)
	if err := s.donations.Update(d); err != nil {
		return err
	}
	log.Printf("[DONATION] failed reference=%s reason=%s", d.Reference, reason)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
