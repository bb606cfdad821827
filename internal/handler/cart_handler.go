package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tumaini/internal/repository"
	"tumaini/internal/service"
	"tumaini/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const cartKeyPrefix = "cart:"

// storedCart is the KV payload: product ids and quantities only. Prices come
// from the catalog on every read so carts never go stale.
type storedCart struct {
	Items      []storedCartItem `json:"items"`
	CouponCode string           `json:"coupon_code,omitempty"`
}

type storedCartItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CartHandler struct {
	kv          store.KV
	productRepo *repository.ProductRepository
	cartSvc     *service.CartService
	ttl         time.Duration
}

func NewCartHandler(kv store.KV, productRepo *repository.ProductRepository, cartSvc *service.CartService, ttl time.Duration) *CartHandler {
	return &CartHandler{kv: kv, productRepo: productRepo, cartSvc: cartSvc, ttl: ttl}
}

type PutCartRequest struct {
	Items      []storedCartItem `json:"items" binding:"required"`
	CouponCode string           `json:"coupon_code"`
}

// Put handles PUT /api/cart. A missing X-Cart-ID gets a fresh one; the id is
// echoed back so the frontend can persist it.
func (h *CartHandler) Put(c *gin.Context) {
	var req PutCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cartID := c.GetHeader("X-Cart-ID")
	if cartID == "" {
		cartID = uuid.NewString()
	}
	for i := range req.Items {
		req.Items[i].Quantity = service.NormalizeQuantity(req.Items[i].Quantity)
	}
	data, _ := json.Marshal(storedCart{Items: req.Items, CouponCode: req.CouponCode})
	if err := h.kv.Set(c.Request.Context(), cartKeyPrefix+cartID, string(data), h.ttl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save cart"})
		return
	}
	h.respond(c, cartID, storedCart{Items: req.Items, CouponCode: req.CouponCode})
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(c *gin.Context) {
	cartID := c.GetHeader("X-Cart-ID")
	if cartID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Cart-ID header is required"})
		return
	}
	raw, err := h.kv.Get(c.Request.Context(), cartKeyPrefix+cartID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	var cart storedCart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "corrupt cart"})
		return
	}
	h.respond(c, cartID, cart)
}

// respond enriches the stored cart with current prices and server-computed
// totals. An unknown coupon is reported but never blocks reading the cart.
func (h *CartHandler) respond(c *gin.Context, cartID string, cart storedCart) {
	ids := make([]uint, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	var items []service.CartItem
	lines := make([]gin.H, 0, len(cart.Items))
	if len(ids) > 0 {
		products, err := h.productRepo.GetByIDs(ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load products"})
			return
		}
		byID := make(map[uint]int, len(products))
		for i := range products {
			byID[products[i].ID] = i
		}
		for _, it := range cart.Items {
			idx, ok := byID[it.ProductID]
			if !ok {
				continue // product removed from catalog
			}
			p := products[idx]
			price := p.EffectivePriceCents()
			items = append(items, service.CartItem{ProductID: p.ID, Price: price, Quantity: it.Quantity})
			lines = append(lines, gin.H{
				"product_id":  p.ID,
				"name":        p.Name,
				"slug":        p.Slug,
				"price_cents": price,
				"quantity":    it.Quantity,
				"in_stock":    p.InStock,
			})
		}
	}
	totals, err := h.cartSvc.Totals(items, cart.CouponCode)
	out := gin.H{
		"cart_id":        cartID,
		"items":          lines,
		"subtotal_cents": totals.Subtotal,
		"discount_cents": totals.Discount,
		"total_cents":    totals.Total,
	}
	if cart.CouponCode != "" {
		out["coupon_code"] = cart.CouponCode
	}
	if err != nil {
		if errors.Is(err, service.ErrInvalidCoupon) {
			out["coupon_error"] = "Invalid coupon code"
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute totals"})
			return
		}
	}
	c.JSON(http.StatusOK, out)
}
