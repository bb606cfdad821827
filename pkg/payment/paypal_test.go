package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{100, "1.00"},
		{523, "5.23"},
		{250000, "2500.00"},
		{5, "0.05"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.cents); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func newPayPalServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostFormValue("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", r.PostFormValue("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "paypal-token",
			"token_type":   "Bearer",
			"expires_in":   32400,
		})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer paypal-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req paypalCreateOrderReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Intent != "CAPTURE" {
			t.Errorf("intent = %q, want CAPTURE", req.Intent)
		}
		if len(req.PurchaseUnits) != 1 {
			t.Fatalf("purchase_units = %d, want 1", len(req.PurchaseUnits))
		}
		if req.PurchaseUnits[0].Amount.Value != "25.00" {
			t.Errorf("amount value = %q, want 25.00", req.PurchaseUnits[0].Amount.Value)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(paypalOrderResp{
			ID:     "5O190127TN364715T",
			Status: "CREATED",
			Links: []paypalLink{
				{Href: "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T", Rel: "approve"},
			},
		})
	})
	mux.HandleFunc("/v2/checkout/orders/5O190127TN364715T/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(paypalOrderResp{ID: "5O190127TN364715T", Status: "COMPLETED"})
	})
	return httptest.NewServer(mux)
}

func TestPayPalInitiatePayment(t *testing.T) {
	srv := newPayPalServer(t)
	defer srv.Close()

	p := NewPayPalProvider(srv.URL, "client-id", "client-secret")
	resp, err := p.InitiatePayment(context.Background(), PaymentRequest{
		Reference:   "don-paypal",
		AmountCents: 2500,
		Currency:    "USD",
		Description: "Donation to Tumaini",
	})
	if err != nil {
		t.Fatalf("InitiatePayment() error = %v", err)
	}
	if resp.ProviderOrderID != "5O190127TN364715T" {
		t.Errorf("ProviderOrderID = %q", resp.ProviderOrderID)
	}
	if resp.ApprovalURL == "" {
		t.Error("ApprovalURL is empty, want approve link relayed")
	}
	if resp.Status != "CREATED" {
		t.Errorf("Status = %q, want CREATED", resp.Status)
	}
}

func TestPayPalCaptureOrder(t *testing.T) {
	srv := newPayPalServer(t)
	defer srv.Close()

	p := NewPayPalProvider(srv.URL, "client-id", "client-secret")
	status, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	if err != nil {
		t.Fatalf("CaptureOrder() error = %v", err)
	}
	if !status.Settled {
		t.Errorf("Settled = false, want true (status %q)", status.ResultDesc)
	}
}
