package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tumaini/internal/models"
	"tumaini/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct {
	productRepo *repository.ProductRepository
}

func NewProductHandler(productRepo *repository.ProductRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo}
}

// List handles GET /api/products with category/featured/sale filters.
func (h *ProductHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	filter := repository.ProductFilter{
		Category: c.Query("category"),
		Featured: c.Query("featured") == "true",
		OnSale:   c.Query("sale") == "true",
		InStock:  c.Query("in_stock") == "true",
	}
	products, total, err := h.productRepo.List(filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": total, "page": page, "limit": limit})
}

// Get handles GET /api/products/:slug.
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.productRepo.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type ProductRequest struct {
	Name           string  `json:"name" binding:"required,max=255"`
	Slug           string  `json:"slug" binding:"required,max=255"`
	Category       string  `json:"category" binding:"max=64"`
	Description    string  `json:"description"`
	PriceCents     int64   `json:"price_cents" binding:"required,min=1"`
	SalePriceCents int64   `json:"sale_price_cents" binding:"min=0"`
	Currency       string  `json:"currency" binding:"omitempty,oneof=KES USD"`
	Rating         float64 `json:"rating" binding:"min=0,max=5"`
	InStock        *bool   `json:"in_stock"`
	Featured       bool    `json:"featured"`
	OnSale         bool    `json:"on_sale"`
	Images         string  `json:"images"`
}

// Create handles POST /api/admin/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Product{
		Name:           req.Name,
		Slug:           req.Slug,
		Category:       req.Category,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		SalePriceCents: req.SalePriceCents,
		Currency:       req.Currency,
		Rating:         req.Rating,
		InStock:        req.InStock == nil || *req.InStock,
		Featured:       req.Featured,
		OnSale:         req.OnSale,
		Images:         req.Images,
	}
	if err := h.productRepo.Create(p); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "product with this slug already exists"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update handles PUT /api/admin/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := h.productRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Name = req.Name
	p.Slug = req.Slug
	p.Category = req.Category
	p.Description = req.Description
	p.PriceCents = req.PriceCents
	p.SalePriceCents = req.SalePriceCents
	if req.Currency != "" {
		p.Currency = req.Currency
	}
	p.Rating = req.Rating
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	p.Featured = req.Featured
	p.OnSale = req.OnSale
	if req.Images != "" {
		p.Images = req.Images
	}
	if err := h.productRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/admin/products/:id (soft delete).
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.productRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
