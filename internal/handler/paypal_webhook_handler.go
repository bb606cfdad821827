package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"tumaini/internal/repository"
	"tumaini/internal/service"

	"github.com/gin-gonic/gin"
)

// paypalWebhookEvent is the subset of PayPal's webhook envelope we act on.
type paypalWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			ReferenceID string `json:"reference_id"`
		} `json:"purchase_units"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

type PayPalWebhookHandler struct {
	donationSvc  *service.DonationService
	donationRepo *repository.DonationRepository
	orderRepo    *repository.OrderRepository
}

func NewPayPalWebhookHandler(donationSvc *service.DonationService, donationRepo *repository.DonationRepository, orderRepo *repository.OrderRepository) *PayPalWebhookHandler {
	return &PayPalWebhookHandler{donationSvc: donationSvc, donationRepo: donationRepo, orderRepo: orderRepo}
}

// Handle processes PayPal webhook events. Only capture completions mutate
// state; everything else is acknowledged and logged. Duplicate deliveries are
// no-ops because completed records are terminal.
func (h *PayPalWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var ev paypalWebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Printf("[PAYPAL webhook] json unmarshal: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	log.Printf("[PAYPAL webhook] event=%s resource=%s status=%s", ev.EventType, ev.Resource.ID, ev.Resource.Status)

	switch ev.EventType {
	case "CHECKOUT.ORDER.APPROVED", "PAYMENT.CAPTURE.COMPLETED":
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	orderID := ev.Resource.ID
	if ev.EventType == "PAYMENT.CAPTURE.COMPLETED" && ev.Resource.SupplementaryData.RelatedIDs.OrderID != "" {
		orderID = ev.Resource.SupplementaryData.RelatedIDs.OrderID
	}
	if orderID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	completed := ev.EventType == "PAYMENT.CAPTURE.COMPLETED" || ev.Resource.Status == "COMPLETED"
	if !completed {
		// Approval only: the confirm endpoint performs the capture.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if d, err := h.donationRepo.GetByProviderOrderID(orderID); err == nil {
		_ = h.donationSvc.Complete(d, "")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if o, err := h.orderRepo.GetByProviderOrderID(orderID); err == nil && !o.Paid {
		o.Paid = true
		if err := h.orderRepo.Update(o); err != nil {
			log.Printf("[PAYPAL webhook] order update failed reference=%s err=%v", o.Reference, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
