package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"tumaini/internal/domain"
	"tumaini/internal/repository"
	"tumaini/internal/service"
	"tumaini/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MpesaWebhookHandler struct {
	donationSvc  *service.DonationService
	donationRepo *repository.DonationRepository
	orderRepo    *repository.OrderRepository
}

func NewMpesaWebhookHandler(donationSvc *service.DonationService, donationRepo *repository.DonationRepository, orderRepo *repository.OrderRepository) *MpesaWebhookHandler {
	return &MpesaWebhookHandler{donationSvc: donationSvc, donationRepo: donationRepo, orderRepo: orderRepo}
}

// Handle processes the Daraja STK callback. Everything after a successful
// parse is acknowledged with 200 so Safaricom stops retrying; completed
// records are terminal and duplicate deliveries are no-ops.
func (h *MpesaWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("[MPESA callback] read body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	log.Printf("[MPESA callback] raw body: %s", string(body))
	var cb payment.STKCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		log.Printf("[MPESA callback] json unmarshal: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sc := cb.Body.StkCallback
	if sc.CheckoutRequestID == "" {
		log.Printf("[MPESA callback] no CheckoutRequestID, acknowledging")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	log.Printf("[MPESA callback] checkout_request_id=%s result_code=%d desc=%s", sc.CheckoutRequestID, sc.ResultCode, sc.ResultDesc)

	d, err := h.donationRepo.GetByCheckoutRequestID(sc.CheckoutRequestID)
	if err == nil {
		if sc.ResultCode == 0 {
			_ = h.donationSvc.Complete(d, cb.MetadataString("MpesaReceiptNumber"))
		} else {
			_ = h.donationSvc.Fail(d, sc.ResultDesc)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		// A transient lookup failure must not be acknowledged: a 200 here
		// would stop Safaricom's redelivery and strand the donation PENDING.
		log.Printf("[MPESA callback] donation lookup failed checkout_request_id=%s err=%v", sc.CheckoutRequestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	// Not a donation: try shop orders on the same correlation id.
	if o, err := h.orderRepo.GetByCheckoutRequestID(sc.CheckoutRequestID); err == nil {
		if sc.ResultCode == 0 && !o.Paid {
			o.Paid = true
			if err := h.orderRepo.Update(o); err != nil {
				log.Printf("[MPESA callback] order update failed reference=%s err=%v", o.Reference, err)
			} else {
				log.Printf("[MPESA callback] order paid reference=%s", o.Reference)
			}
		} else if sc.ResultCode != 0 && !o.Paid && o.Status == domain.OrderStatusProcessing {
			_ = h.orderRepo.UpdateStatus(o.ID, domain.OrderStatusCancelled)
			log.Printf("[MPESA callback] order cancelled reference=%s desc=%s", o.Reference, sc.ResultDesc)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[MPESA callback] order lookup failed checkout_request_id=%s err=%v", sc.CheckoutRequestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	log.Printf("[MPESA callback] no record for checkout_request_id=%s, acknowledging", sc.CheckoutRequestID)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
