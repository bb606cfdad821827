package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development and tests.
type StubProvider struct{}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	return &PaymentResponse{
		Reference:         req.Reference,
		Status:            "PENDING",
		CheckoutRequestID: fmt.Sprintf("stub_%d", time.Now().UnixNano()),
		CustomerMessage:   "Stub payment initiated",
	}, nil
}

func (s *StubProvider) QueryPayment(ctx context.Context, prev PaymentResponse) (*PaymentStatus, error) {
	return &PaymentStatus{Reference: prev.Reference, Settled: true, ResultCode: "0", ResultDesc: "stub settled"}, nil
}
