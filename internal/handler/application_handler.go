package handler

import (
	"net/http"

	"tumaini/internal/models"
	"tumaini/internal/repository"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applicationRepo *repository.ApplicationRepository
}

func NewApplicationHandler(applicationRepo *repository.ApplicationRepository) *ApplicationHandler {
	return &ApplicationHandler{applicationRepo: applicationRepo}
}

type ApplicationRequest struct {
	FirstName string `json:"first_name" binding:"required,max=64"`
	LastName  string `json:"last_name" binding:"required,max=64"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"max=20"`
	Program   string `json:"program" binding:"required,max=128"`
	Message   string `json:"message"`
}

// Create handles POST /api/applications — a program sign-up.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := &models.Application{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Program:   req.Program,
		Message:   req.Message,
	}
	if err := h.applicationRepo.Create(a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save application"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": a.ID, "status": "received"})
}
