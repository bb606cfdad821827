package handler

import (
	"errors"
	"log"
	"net/http"

	"tumaini/internal/domain"
	"tumaini/internal/repository"
	"tumaini/internal/service"
	"tumaini/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DonationHandler struct {
	svc          *service.DonationService
	donationRepo *repository.DonationRepository
}

func NewDonationHandler(svc *service.DonationService, donationRepo *repository.DonationRepository) *DonationHandler {
	return &DonationHandler{svc: svc, donationRepo: donationRepo}
}

type CreateDonationRequest struct {
	DonorName   string `json:"donor_name" binding:"required_unless=Anonymous true"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone"`
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	Currency    string `json:"currency" binding:"omitempty,oneof=KES USD"`
	Method      string `json:"method" binding:"required,oneof=MPESA PAYPAL"`
	Message     string `json:"message"`
	Anonymous   bool   `json:"anonymous"`
}

// Create handles POST /api/donations. The donation is persisted PENDING and
// collection is initiated with the chosen provider; the caller gets a 202 with
// whatever the donor needs next (STK prompt message or PayPal approval link).
func (h *DonationHandler) Create(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Method == domain.MethodMpesa && req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required for M-Pesa donations"})
		return
	}
	// Daraja charges whole KES; a USD amount would be collected at face value.
	if req.Method == domain.MethodMpesa && req.Currency == domain.CurrencyUSD {
		c.JSON(http.StatusBadRequest, gin.H{"error": "M-Pesa donations are charged in KES"})
		return
	}
	d, resp, err := h.svc.Create(c.Request.Context(), service.DonationInput{
		DonorName:   req.DonorName,
		Email:       req.Email,
		Phone:       req.Phone,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Method:      req.Method,
		Message:     req.Message,
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": req.Method + " payments are not available"})
			return
		}
		log.Printf("[DONATION] initiation failed method=%s err=%v", req.Method, err)
		out := gin.H{"error": "payment initiation failed"}
		if d != nil {
			out["reference"] = d.Reference
		}
		c.JSON(http.StatusBadGateway, out)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"reference":           d.Reference,
		"status":              d.Status,
		"checkout_request_id": resp.CheckoutRequestID,
		"approval_url":        resp.ApprovalURL,
		"customer_message":    resp.CustomerMessage,
	})
}

// Get handles GET /api/donations/:reference so a donor can poll their status.
func (h *DonationHandler) Get(c *gin.Context) {
	d, err := h.donationRepo.GetByReference(c.Param("reference"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, d)
}
