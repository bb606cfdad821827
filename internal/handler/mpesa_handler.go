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

// MpesaHandler exposes direct STK endpoints: re-firing a push for an existing
// donation and relaying the Daraja status query.
type MpesaHandler struct {
	svc          *service.DonationService
	donationRepo *repository.DonationRepository
}

func NewMpesaHandler(svc *service.DonationService, donationRepo *repository.DonationRepository) *MpesaHandler {
	return &MpesaHandler{svc: svc, donationRepo: donationRepo}
}

type StkPushRequest struct {
	DonationReference string `json:"donation_reference"`
	Phone             string `json:"phone" binding:"required"`
	AmountCents       int64  `json:"amount_cents"`
}

// StkPush handles POST /api/mpesa/stk-push. With a donation_reference it
// re-initiates the push for that donation (a donor who dismissed the prompt);
// without one it creates an anonymous donation for the given amount.
func (h *MpesaHandler) StkPush(c *gin.Context) {
	var req StkPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DonationReference == "" {
		if req.AmountCents < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents is required"})
			return
		}
		d, resp, err := h.svc.Create(c.Request.Context(), service.DonationInput{
			Phone:       req.Phone,
			AmountCents: req.AmountCents,
			Method:      domain.MethodMpesa,
			Anonymous:   true,
		})
		if err != nil {
			h.initiationError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"reference":           d.Reference,
			"checkout_request_id": resp.CheckoutRequestID,
			"customer_message":    resp.CustomerMessage,
		})
		return
	}

	d, err := h.donationRepo.GetByReference(req.DonationReference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if d.Status != domain.DonationStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "donation is not pending", "status": d.Status})
		return
	}
	provider, err := h.svc.Provider(domain.MethodMpesa)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "M-Pesa payments are not available"})
		return
	}
	d.Phone = req.Phone
	resp, err := provider.InitiatePayment(c.Request.Context(), payment.PaymentRequest{
		Reference:   d.Reference,
		AmountCents: d.AmountCents,
		Currency:    d.Currency,
		Description: "Tumaini donation",
		Phone:       d.Phone,
		CallbackURL: h.svc.MpesaCallbackURL(),
	})
	if err != nil {
		h.initiationError(c, err)
		return
	}
	d.CheckoutRequestID = resp.CheckoutRequestID
	d.MerchantRequestID = resp.MerchantRequestID
	if err := h.donationRepo.Update(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"reference":           d.Reference,
		"checkout_request_id": resp.CheckoutRequestID,
		"customer_message":    resp.CustomerMessage,
	})
}

// Status handles GET /api/mpesa/status/:checkoutRequestID: looks up the local
// record and relays a Daraja STK query for pending ones.
func (h *MpesaHandler) Status(c *gin.Context) {
	checkoutID := c.Param("checkoutRequestID")
	d, err := h.donationRepo.GetByCheckoutRequestID(checkoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown checkout request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	out := gin.H{"reference": d.Reference, "status": d.Status}
	if d.Status == domain.DonationStatusPending {
		provider, err := h.svc.Provider(domain.MethodMpesa)
		if err == nil {
			status, qerr := provider.QueryPayment(c.Request.Context(), payment.PaymentResponse{
				Reference:         d.Reference,
				CheckoutRequestID: checkoutID,
			})
			if qerr != nil {
				log.Printf("[MPESA] status query failed checkout_request_id=%s err=%v", checkoutID, qerr)
			} else {
				out["result_code"] = status.ResultCode
				out["result_desc"] = status.ResultDesc
			}
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *MpesaHandler) initiationError(c *gin.Context, err error) {
	if errors.Is(err, payment.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "M-Pesa payments are not available"})
		return
	}
	log.Printf("[MPESA] STK initiation failed: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "payment initiation failed"})
}
