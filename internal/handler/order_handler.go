package handler

import (
	"errors"
	"log"
	"net/http"

	"tumaini/internal/domain"
	"tumaini/internal/models"
	"tumaini/internal/repository"
	"tumaini/internal/service"
	"tumaini/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderHandler struct {
	orderRepo   *repository.OrderRepository
	productRepo *repository.ProductRepository
	cartSvc     *service.CartService
	donationSvc *service.DonationService
}

func NewOrderHandler(orderRepo *repository.OrderRepository, productRepo *repository.ProductRepository, cartSvc *service.CartService, donationSvc *service.DonationService) *OrderHandler {
	return &OrderHandler{orderRepo: orderRepo, productRepo: productRepo, cartSvc: cartSvc, donationSvc: donationSvc}
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName string             `json:"customer_name" binding:"required,max=128"`
	Email        string             `json:"email" binding:"required,email"`
	Phone        string             `json:"phone"`
	AddressLine  string             `json:"address_line" binding:"max=255"`
	City         string             `json:"city" binding:"max=64"`
	Country      string             `json:"country" binding:"max=64"`
	Method       string             `json:"method" binding:"required,oneof=MPESA PAYPAL"`
	CouponCode   string             `json:"coupon_code"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Create handles POST /api/orders. Prices are snapshotted from the catalog and
// totals are computed server-side; client-submitted amounts are never trusted.
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Method == domain.MethodMpesa && req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required for M-Pesa orders"})
		return
	}

	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := h.productRepo.GetByIDs(ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load products"})
		return
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var cartItems []service.CartItem
	var orderItems []models.OrderItem
	for _, it := range req.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown product in cart"})
			return
		}
		if !p.InStock {
			c.JSON(http.StatusConflict, gin.H{"error": p.Name + " is out of stock"})
			return
		}
		qty := service.NormalizeQuantity(it.Quantity)
		price := p.EffectivePriceCents()
		cartItems = append(cartItems, service.CartItem{ProductID: p.ID, Price: price, Quantity: qty})
		orderItems = append(orderItems, models.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			PriceCents: price,
			Quantity:   qty,
		})
	}

	totals, err := h.cartSvc.Totals(cartItems, req.CouponCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCoupon) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coupon code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
		return
	}

	currency := domain.CurrencyKES
	if req.Method == domain.MethodPayPal {
		currency = domain.CurrencyUSD
	}
	country := req.Country
	if country == "" {
		country = "Kenya"
	}
	o := &models.Order{
		Reference:     "ord-" + uuid.NewString(),
		CustomerName:  req.CustomerName,
		Email:         req.Email,
		Phone:         req.Phone,
		AddressLine:   req.AddressLine,
		City:          req.City,
		Country:       country,
		Method:        req.Method,
		Status:        domain.OrderStatusProcessing,
		SubtotalCents: totals.Subtotal,
		DiscountCents: totals.Discount,
		TotalCents:    totals.Total,
		Currency:      currency,
		CouponCode:    req.CouponCode,
		Items:         orderItems,
	}
	if err := h.orderRepo.Create(o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	provider, err := h.donationSvc.Provider(req.Method)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": req.Method + " payments are not available", "reference": o.Reference})
		return
	}
	resp, err := provider.InitiatePayment(c.Request.Context(), payment.PaymentRequest{
		Reference:   o.Reference,
		AmountCents: o.TotalCents,
		Currency:    o.Currency,
		Description: "Tumaini shop order",
		Phone:       o.Phone,
		CallbackURL: h.donationSvc.MpesaCallbackURL(),
	})
	if err != nil {
		log.Printf("[ORDER] payment initiation failed reference=%s err=%v", o.Reference, err)
		_ = h.orderRepo.UpdateStatus(o.ID, domain.OrderStatusCancelled)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment initiation failed", "reference": o.Reference})
		return
	}
	o.CheckoutRequestID = resp.CheckoutRequestID
	o.ProviderOrderID = resp.ProviderOrderID
	if err := h.orderRepo.Update(o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}
	log.Printf("[ORDER] created reference=%s method=%s total=%d", o.Reference, o.Method, o.TotalCents)
	c.JSON(http.StatusAccepted, gin.H{
		"reference":           o.Reference,
		"status":              o.Status,
		"subtotal_cents":      o.SubtotalCents,
		"discount_cents":      o.DiscountCents,
		"total_cents":         o.TotalCents,
		"checkout_request_id": resp.CheckoutRequestID,
		"approval_url":        resp.ApprovalURL,
		"customer_message":    resp.CustomerMessage,
	})
}

// Get handles GET /api/orders/:reference.
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orderRepo.GetByReference(c.Param("reference"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, o)
}
