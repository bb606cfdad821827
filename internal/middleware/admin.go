package middleware

import (
	"tumaini/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired restricts a route to ADMIN accounts. Staff can read the
// back-office where the router says so; mutations sit behind this.
func AdminRequired() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
