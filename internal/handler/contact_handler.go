package handler

import (
	"net/http"

	"tumaini/internal/models"
	"tumaini/internal/repository"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactRepo *repository.ContactRepository
}

func NewContactHandler(contactRepo *repository.ContactRepository) *ContactHandler {
	return &ContactHandler{contactRepo: contactRepo}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=128"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"max=255"`
	Message string `json:"message" binding:"required"`
}

// Create handles POST /api/contact.
func (h *ContactHandler) Create(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.contactRepo.Create(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": m.ID, "status": "received"})
}
