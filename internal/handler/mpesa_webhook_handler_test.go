package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tumaini/config"
	"tumaini/internal/domain"
	"tumaini/internal/repository"
	"tumaini/internal/service"
	"tumaini/internal/ws"
	"tumaini/pkg/payment"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newWebhookTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *ws.Feed) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	donationRepo := repository.NewDonationRepository(gdb)
	orderRepo := repository.NewOrderRepository(gdb)
	feed := ws.NewFeed()
	svc := service.NewDonationService(&config.Config{}, donationRepo, map[string]payment.Provider{}, feed)
	h := NewMpesaWebhookHandler(svc, donationRepo, orderRepo)

	r := gin.New()
	r.POST("/api/webhooks/mpesa", h.Handle)
	return r, mock, feed
}

func postCallback(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mpesa", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMpesaWebhookBadJSON(t *testing.T) {
	r, _, _ := newWebhookTest(t)
	w := postCallback(r, "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMpesaWebhookUnknownCheckoutAcknowledged(t *testing.T) {
	r, mock, _ := newWebhookTest(t)
	mock.ExpectQuery("SELECT (.+) FROM `donations` WHERE checkout_request_id = ").
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery("SELECT (.+) FROM `orders` WHERE checkout_request_id = ").
		WillReturnError(gorm.ErrRecordNotFound)

	body := `{"Body":{"stkCallback":{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_unknown","ResultCode":0,"ResultDesc":"ok"}}}`
	w := postCallback(r, body)
	// Unknown correlation ids still get a 200 so Safaricom stops retrying.
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "received") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMpesaWebhookLookupErrorIsRetriable(t *testing.T) {
	r, mock, _ := newWebhookTest(t)
	mock.ExpectQuery("SELECT (.+) FROM `donations` WHERE checkout_request_id = ").
		WillReturnError(errors.New("connection reset"))

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":0,"ResultDesc":"ok"}}}`
	w := postCallback(r, body)
	// A transient DB failure must not be acknowledged with 200, or Safaricom
	// stops redelivering and the donation is stranded PENDING.
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMpesaWebhookCompletesDonation(t *testing.T) {
	r, mock, feed := newWebhookTest(t)
	client := &ws.Client{Send: make(chan []byte, 1)}
	feed.Register(client)
	defer client.Close()

	rows := sqlmock.NewRows([]string{"id", "reference", "status", "amount_cents", "currency", "method", "checkout_request_id"}).
		AddRow(5, "don-abc", domain.DonationStatusPending, 100000, "KES", "MPESA", "ws_CO_191220191020363925")
	mock.ExpectQuery("SELECT (.+) FROM `donations` WHERE checkout_request_id = ").
		WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `donations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"Body":{"stkCallback":{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":0,"ResultDesc":"The service request is processed successfully.","CallbackMetadata":{"Item":[{"Name":"Amount","Value":1000.00},{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},{"Name":"PhoneNumber","Value":254708374149}]}}}}`
	w := postCallback(r, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
	select {
	case <-client.Send:
	default:
		t.Error("completed donation was not broadcast to the feed")
	}
}

func TestMpesaWebhookCompletedIsTerminal(t *testing.T) {
	r, mock, _ := newWebhookTest(t)

	rows := sqlmock.NewRows([]string{"id", "reference", "status", "checkout_request_id"}).
		AddRow(5, "don-abc", domain.DonationStatusCompleted, "ws_CO_191220191020363925")
	mock.ExpectQuery("SELECT (.+) FROM `donations` WHERE checkout_request_id = ").
		WillReturnRows(rows)
	// No UPDATE expected: duplicate deliveries are no-ops.

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":0,"ResultDesc":"ok"}}}`
	w := postCallback(r, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMpesaWebhookFailureMarksDonationFailed(t *testing.T) {
	r, mock, _ := newWebhookTest(t)

	rows := sqlmock.NewRows([]string{"id", "reference", "status", "checkout_request_id"}).
		AddRow(5, "don-abc", domain.DonationStatusPending, "ws_CO_191220191020363925")
	mock.ExpectQuery("SELECT (.+) FROM `donations` WHERE checkout_request_id = ").
		WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `donations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`
	w := postCallback(r, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
