package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// PayPalProvider creates and captures orders via the PayPal Orders v2 API.
// The OAuth token exchange (Basic auth, form-encoded client_credentials grant)
// and token caching are handled by the oauth2 client.
type PayPalProvider struct {
	BaseURL string
	client  *http.Client
}

func NewPayPalProvider(baseURL, clientID, clientSecret string) *PayPalProvider {
	if baseURL == "" {
		baseURL = "https://api-m.sandbox.paypal.com"
	}
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
	}
	client := conf.Client(context.Background())
	client.Timeout = 30 * time.Second
	return &PayPalProvider{
		BaseURL: baseURL,
		client:  client,
	}
}

func (p *PayPalProvider) Name() string { return "paypal" }

// FormatAmount renders cents as PayPal's decimal string, e.g. 523 -> "5.23".
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalCreateOrderReq struct {
	Intent             string               `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnit `json:"purchase_units"`
	ApplicationContext *paypalAppContext    `json:"application_context,omitempty"`
}

type paypalAppContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrderResp struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []paypalLink `json:"links"`
}

// InitiatePayment creates a CAPTURE-intent order with a single purchase unit
// and relays the order id plus the buyer approval link.
func (p *PayPalProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	payload := paypalCreateOrderReq{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: req.Reference,
			Description: req.Description,
			Amount: paypalAmount{
				CurrencyCode: req.Currency,
				Value:        FormatAmount(req.AmountCents),
			},
		}},
	}
	if req.ReturnURL != "" || req.CancelURL != "" {
		payload.ApplicationContext = &paypalAppContext{ReturnURL: req.ReturnURL, CancelURL: req.CancelURL}
	}
	out, err := p.post(ctx, "/v2/checkout/orders", payload)
	if err != nil {
		return nil, err
	}
	approval := ""
	for _, l := range out.Links {
		if l.Rel == "approve" {
			approval = l.Href
		}
	}
	log.Printf("[PAYPAL] order created reference=%s order_id=%s status=%s", req.Reference, out.ID, out.Status)
	return &PaymentResponse{
		Reference:       req.Reference,
		Status:          out.Status,
		ProviderOrderID: out.ID,
		ApprovalURL:     approval,
	}, nil
}

// CaptureOrder finalizes an approved order and returns its terminal status.
func (p *PayPalProvider) CaptureOrder(ctx context.Context, orderID string) (*PaymentStatus, error) {
	out, err := p.post(ctx, "/v2/checkout/orders/"+orderID+"/capture", struct{}{})
	if err != nil {
		return nil, err
	}
	log.Printf("[PAYPAL] order captured order_id=%s status=%s", out.ID, out.Status)
	return &PaymentStatus{
		Reference:  out.ID,
		Settled:    out.Status == "COMPLETED",
		Failed:     out.Status == "VOIDED",
		ResultDesc: out.Status,
	}, nil
}

// QueryPayment reads the order's current status.
func (p *PayPalProvider) QueryPayment(ctx context.Context, prev PaymentResponse) (*PaymentStatus, error) {
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/v2/checkout/orders/"+prev.ProviderOrderID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paypal get order: %d %s", resp.StatusCode, string(body))
	}
	var out paypalOrderResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &PaymentStatus{
		Reference:  prev.Reference,
		Settled:    out.Status == "COMPLETED",
		Failed:     out.Status == "VOIDED",
		ResultDesc: out.Status,
	}, nil
}

func (p *PayPalProvider) post(ctx context.Context, path string, payload interface{}) (*paypalOrderResp, error) {
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("paypal %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	var out paypalOrderResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
