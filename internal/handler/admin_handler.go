package handler

import (
	"net/http"
	"strconv"

	"tumaini/internal/domain"
	"tumaini/internal/repository"
	"tumaini/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	donationRepo    *repository.DonationRepository
	orderRepo       *repository.OrderRepository
	contactRepo     *repository.ContactRepository
	applicationRepo *repository.ApplicationRepository
	authSvc         *service.AuthService
}

func NewAdminHandler(
	donationRepo *repository.DonationRepository,
	orderRepo *repository.OrderRepository,
	contactRepo *repository.ContactRepository,
	applicationRepo *repository.ApplicationRepository,
	authSvc *service.AuthService,
) *AdminHandler {
	return &AdminHandler{
		donationRepo:    donationRepo,
		orderRepo:       orderRepo,
		contactRepo:     contactRepo,
		applicationRepo: applicationRepo,
		authSvc:         authSvc,
	}
}

// Dashboard handles GET /api/admin/dashboard — overview stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	totalRaised, err := h.donationRepo.TotalCompletedCents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	donations := gin.H{}
	for _, status := range []string{
		domain.DonationStatusPending,
		domain.DonationStatusCompleted,
		domain.DonationStatusFailed,
		domain.DonationStatusExpired,
	} {
		n, err := h.donationRepo.CountByStatus(status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
			return
		}
		donations[status] = n
	}
	orders, err := h.orderRepo.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	unreadContacts, err := h.contactRepo.CountUnread()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	applications, err := h.applicationRepo.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_raised_cents": totalRaised,
		"donations":          donations,
		"orders":             orders,
		"unread_contacts":    unreadContacts,
		"applications":       applications,
	})
}

// ListDonations handles GET /api/admin/donations.
func (h *AdminHandler) ListDonations(c *gin.Context) {
	page, limit := parsePagination(c)
	donations, total, err := h.donationRepo.List(c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list donations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": donations, "total": total, "page": page, "limit": limit})
}

// ListOrders handles GET /api/admin/orders.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, limit := parsePagination(c)
	orders, total, err := h.orderRepo.List(c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": total, "page": page, "limit": limit})
}

// UpdateOrderStatus handles PATCH /api/admin/orders/:id/status. Orders move
// forward only; cancellation is allowed until delivery.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=PROCESSING SHIPPED DELIVERED CANCELLED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.orderRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if !domain.ValidOrderTransition(o.Status, req.Status) {
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition", "from": o.Status, "to": req.Status})
		return
	}
	if err := h.orderRepo.UpdateStatus(o.ID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": o.ID, "status": req.Status})
}

// ListContacts handles GET /api/admin/contacts.
func (h *AdminHandler) ListContacts(c *gin.Context) {
	page, limit := parsePagination(c)
	msgs, total, err := h.contactRepo.List(c.Query("unread") == "true", page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs, "total": total, "page": page, "limit": limit})
}

// MarkContactRead handles PUT /api/admin/contacts/:id/read.
func (h *AdminHandler) MarkContactRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.contactRepo.MarkRead(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListApplications handles GET /api/admin/applications.
func (h *AdminHandler) ListApplications(c *gin.Context) {
	page, limit := parsePagination(c)
	apps, total, err := h.applicationRepo.List(c.Query("program"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list applications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps, "total": total, "page": page, "limit": limit})
}

// CreateUser handles POST /api/admin/users — provision staff/admin accounts.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=128"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"omitempty,oneof=ADMIN STAFF"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.authSvc.CreateUser(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if err == service.ErrEmailExists {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, u)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
