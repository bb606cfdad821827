package handler

import (
	"context"
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

// orderCapturer is satisfied by the PayPal provider.
type orderCapturer interface {
	CaptureOrder(ctx context.Context, orderID string) (*payment.PaymentStatus, error)
}

type PayPalHandler struct {
	donationSvc  *service.DonationService
	donationRepo *repository.DonationRepository
	orderRepo    *repository.OrderRepository
}

func NewPayPalHandler(donationSvc *service.DonationService, donationRepo *repository.DonationRepository, orderRepo *repository.OrderRepository) *PayPalHandler {
	return &PayPalHandler{donationSvc: donationSvc, donationRepo: donationRepo, orderRepo: orderRepo}
}

// Capture handles POST /api/paypal/orders/:reference/capture. The frontend
// calls this after the buyer approves the PayPal order; we capture and settle
// the matching donation or shop order.
func (h *PayPalHandler) Capture(c *gin.Context) {
	ref := c.Param("reference")
	provider, err := h.donationSvc.Provider(domain.MethodPayPal)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PayPal payments are not available"})
		return
	}
	capturer, ok := provider.(orderCapturer)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PayPal payments are not available"})
		return
	}

	if d, err := h.donationRepo.GetByReference(ref); err == nil {
		if d.Status == domain.DonationStatusCompleted {
			c.JSON(http.StatusOK, gin.H{"reference": d.Reference, "status": d.Status})
			return
		}
		if d.ProviderOrderID == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "donation has no PayPal order"})
			return
		}
		status, err := capturer.CaptureOrder(c.Request.Context(), d.ProviderOrderID)
		if err != nil {
			log.Printf("[PAYPAL] capture failed reference=%s err=%v", ref, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "capture failed"})
			return
		}
		if status.Settled {
			_ = h.donationSvc.Complete(d, "")
		} else if status.Failed {
			_ = h.donationSvc.Fail(d, status.ResultDesc)
		}
		c.JSON(http.StatusOK, gin.H{"reference": d.Reference, "status": d.Status, "provider_status": status.ResultDesc})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	o, err := h.orderRepo.GetByReference(ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reference not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if o.Paid {
		c.JSON(http.StatusOK, gin.H{"reference": o.Reference, "paid": true})
		return
	}
	if o.ProviderOrderID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "order has no PayPal order"})
		return
	}
	status, err := capturer.CaptureOrder(c.Request.Context(), o.ProviderOrderID)
	if err != nil {
		log.Printf("[PAYPAL] capture failed reference=%s err=%v", ref, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "capture failed"})
		return
	}
	if status.Settled {
		o.Paid = true
		if err := h.orderRepo.Update(o); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"reference": o.Reference, "paid": o.Paid, "provider_status": status.ResultDesc})
}
