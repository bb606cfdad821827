package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSTKPassword(t *testing.T) {
	at := time.Date(2024, 3, 15, 14, 7, 9, 0, time.UTC)
	password, timestamp := STKPassword("174379", "passkey123", at)

	if timestamp != "20240315140709" {
		t.Errorf("timestamp = %q, want 20240315140709", timestamp)
	}
	want := base64.StdEncoding.EncodeToString([]byte("174379passkey12320240315140709"))
	if password != want {
		t.Errorf("password = %q, want %q", password, want)
	}

	// Deterministic: same triple, same output.
	again, _ := STKPassword("174379", "passkey123", at)
	if again != password {
		t.Error("STKPassword is not deterministic for a fixed input")
	}
}

func TestSTKTimestampSingleDigits(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := STKTimestamp(at); got != "20260102030405" {
		t.Errorf("STKTimestamp = %q, want zero-padded 20260102030405", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0712345678", "254712345678", false},
		{"0110123456", "254110123456", false},
		{"+254712345678", "254712345678", false},
		{"254712345678", "254712345678", false},
		{"0712 345 678", "254712345678", false},
		{"0712-345-678", "254712345678", false},
		{"12345", "", true},
		{"0812345678", "", true}, // not a Safaricom-style prefix
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizePhone(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func newDarajaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck" || pass != "cs" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"errorMessage":"Invalid Authentication passed"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req stkPushReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.TransactionType != "CustomerPayBillOnline" {
			t.Errorf("TransactionType = %q", req.TransactionType)
		}
		if req.PhoneNumber != "254712345678" {
			t.Errorf("PhoneNumber = %q, want normalized 254712345678", req.PhoneNumber)
		}
		if req.Amount != "1" {
			t.Errorf("Amount = %q, want 1", req.Amount)
		}
		json.NewEncoder(w).Encode(stkPushResp{
			MerchantRequestID:   "29115-34620561-1",
			CheckoutRequestID:   "ws_CO_191220191020363925",
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
			CustomerMessage:     "Success. Request accepted for processing",
		})
	})
	return httptest.NewServer(mux)
}

// Amount 1 with a well-formed Kenyan phone yields a CheckoutRequestID.
func TestMpesaInitiatePayment(t *testing.T) {
	srv := newDarajaServer(t)
	defer srv.Close()

	p := NewMpesaProvider(srv.URL, "ck", "cs", "174379", "passkey123")
	resp, err := p.InitiatePayment(context.Background(), PaymentRequest{
		Reference:   "don-test",
		AmountCents: 100,
		Currency:    "KES",
		Phone:       "0712345678",
		CallbackURL: "https://example.org/api/webhooks/mpesa",
		Description: "Donation",
	})
	if err != nil {
		t.Fatalf("InitiatePayment() error = %v", err)
	}
	if resp.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Errorf("CheckoutRequestID = %q", resp.CheckoutRequestID)
	}
	if resp.Status != "PENDING" {
		t.Errorf("Status = %q, want PENDING", resp.Status)
	}
}

func TestMpesaTokenCached(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(stkPushResp{CheckoutRequestID: "ws_CO_1", ResponseCode: "0"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewMpesaProvider(srv.URL, "ck", "cs", "174379", "pk")
	req := PaymentRequest{Reference: "r", AmountCents: 100, Phone: "0712345678"}
	for i := 0; i < 3; i++ {
		if _, err := p.InitiatePayment(context.Background(), req); err != nil {
			t.Fatalf("InitiatePayment() #%d error = %v", i, err)
		}
	}
	if tokenCalls != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cached)", tokenCalls)
	}
}

// Provider auth failures surface the raw provider body for diagnosis.
func TestMpesaTokenErrorSurfacesBody(t *testing.T) {
	srv := newDarajaServer(t)
	defer srv.Close()

	p := NewMpesaProvider(srv.URL, "wrong", "creds", "174379", "pk")
	_, err := p.InitiatePayment(context.Background(), PaymentRequest{
		Reference: "don-x", AmountCents: 100, Phone: "0712345678",
	})
	if err == nil {
		t.Fatal("expected auth error")
	}
	if !strings.Contains(err.Error(), "Invalid Authentication passed") {
		t.Errorf("error %q does not carry the provider body", err)
	}
}

func TestSTKCallbackMetadata(t *testing.T) {
	raw := `{"Body":{"stkCallback":{"MerchantRequestID":"29115-34620561-1",
		"CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":0,
		"ResultDesc":"The service request is processed successfully.",
		"CallbackMetadata":{"Item":[
			{"Name":"Amount","Value":1.00},
			{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},
			{"Name":"TransactionDate","Value":20191219102115},
			{"Name":"PhoneNumber","Value":254708374149}]}}}}`
	var cb STKCallback
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cb.Body.StkCallback.ResultCode != 0 {
		t.Errorf("ResultCode = %d", cb.Body.StkCallback.ResultCode)
	}
	if got := cb.MetadataString("MpesaReceiptNumber"); got != "NLJ7RT61SV" {
		t.Errorf("MpesaReceiptNumber = %q", got)
	}
	if got := cb.MetadataString("PhoneNumber"); got != "254708374149" {
		t.Errorf("PhoneNumber = %q", got)
	}
	if got := cb.MetadataString("Missing"); got != "" {
		t.Errorf("Missing = %q, want empty", got)
	}
}
