package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MpesaProvider implements STK push against the Safaricom Daraja API.
type MpesaProvider struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string

	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewMpesaProvider(baseURL, consumerKey, consumerSecret, shortCode, passkey string) *MpesaProvider {
	if baseURL == "" {
		baseURL = "https://sandbox.safaricom.co.ke"
	}
	return &MpesaProvider{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		ShortCode:      shortCode,
		Passkey:        passkey,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *MpesaProvider) Name() string { return "mpesa_daraja" }

// STKTimestamp formats t as Daraja's YYYYMMDDHHmmss.
func STKTimestamp(t time.Time) string {
	return t.Format("20060102150405")
}

// STKPassword derives the request signature for a short code at time t:
// base64(shortCode + passkey + timestamp). Deterministic for a fixed input.
func STKPassword(shortCode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = STKTimestamp(t)
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
	return password, timestamp
}

var kenyanMSISDN = regexp.MustCompile(`^254(7\d{8}|1\d{8})$`)

// NormalizePhone converts Kenyan phone number spellings (07XX..., 011X...,
// +2547XX..., 2547XX...) to the 254XXXXXXXXX form Daraja expects.
func NormalizePhone(phone string) (string, error) {
	s := strings.TrimSpace(phone)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "0") {
		s = "254" + s[1:]
	}
	if !kenyanMSISDN.MatchString(s) {
		return "", fmt.Errorf("invalid Kenyan phone number: %q", phone)
	}
	return s, nil
}

type mpesaTokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// getToken exchanges consumer credentials for a bearer token via Basic auth.
// Tokens are cached until shortly before Daraja's stated expiry.
func (p *MpesaProvider) getToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return p.token, nil
	}
	url := p.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.ConsumerKey, p.ConsumerSecret)
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa token: %d %s", resp.StatusCode, string(body))
	}
	var out mpesaTokenResp
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("mpesa token: empty access_token in %s", string(body))
	}
	ttl := 3600
	if n, err := strconv.Atoi(out.ExpiresIn); err == nil && n > 0 {
		ttl = n
	}
	p.token = out.AccessToken
	// renew a couple of minutes early
	p.tokenExpiry = time.Now().Add(time.Duration(ttl-120) * time.Second)
	return p.token, nil
}

type stkPushReq struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResp struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// InitiatePayment fires an STK push and relays Daraja's acknowledgment. The
// returned CheckoutRequestID correlates the pending push; final payment state
// arrives on the callback URL.
func (p *MpesaProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("mpesa auth: %w", err)
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	password, timestamp := STKPassword(p.ShortCode, p.Passkey, time.Now())
	// Daraja takes whole KES, minimum 1.
	amount := req.AmountCents / 100
	if amount < 1 {
		amount = 1
	}
	payload := stkPushReq{
		BusinessShortCode: p.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            strconv.FormatInt(amount, 10),
		PartyA:            phone,
		PartyB:            p.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       req.CallbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	log.Printf("[MPESA] STK push reference=%s phone=%s amount=%d callback=%s", req.Reference, phone, amount, req.CallbackURL)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mpesa stk push: %d %s", resp.StatusCode, string(respBody))
	}
	var out stkPushResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "0" {
		return nil, fmt.Errorf("mpesa stk push rejected: code=%s %s", out.ResponseCode, out.ResponseDescription)
	}
	log.Printf("[MPESA] STK accepted reference=%s checkout_request_id=%s", req.Reference, out.CheckoutRequestID)
	return &PaymentResponse{
		Reference:         req.Reference,
		Status:            "PENDING",
		CheckoutRequestID: out.CheckoutRequestID,
		MerchantRequestID: out.MerchantRequestID,
		CustomerMessage:   out.CustomerMessage,
	}, nil
}

type stkQueryReq struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type stkQueryResp struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
}

// QueryPayment asks Daraja for the outcome of a pending STK push.
func (p *MpesaProvider) QueryPayment(ctx context.Context, prev PaymentResponse) (*PaymentStatus, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("mpesa auth: %w", err)
	}
	password, timestamp := STKPassword(p.ShortCode, p.Passkey, time.Now())
	payload := stkQueryReq{
		BusinessShortCode: p.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: prev.CheckoutRequestID,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/mpesa/stkpushquery/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mpesa stk query: %d %s", resp.StatusCode, string(respBody))
	}
	var out stkQueryResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &PaymentStatus{
		Reference:  prev.Reference,
		Settled:    out.ResultCode == "0",
		Failed:     out.ResultCode != "" && out.ResultCode != "0",
		ResultCode: out.ResultCode,
		ResultDesc: out.ResultDesc,
	}, nil
}

// STKCallback is Daraja's asynchronous result envelope posted to our webhook.
type STKCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []STKCallbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// MetadataString extracts a named CallbackMetadata item as a string.
func (cb *STKCallback) MetadataString(name string) string {
	for _, item := range cb.Body.StkCallback.CallbackMetadata.Item {
		if item.Name != name || item.Value == nil {
			continue
		}
		switch v := item.Value.(type) {
		case string:
			return v
		case float64:
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
