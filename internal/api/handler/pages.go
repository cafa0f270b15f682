package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NotFound is the 404 page.
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
}

// Forbidden is the 403 page.
func (h *Handler) Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this page"})
}
