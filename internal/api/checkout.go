package api

import (
	"net/http"

	"music-store/internal/service"

	"github.com/gin-gonic/gin"
)

// createCheckoutSession prices the cart and returns the provider's hosted
// checkout URL.
func (h *Handler) createCheckoutSession(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one product is required"})
		return
	}

	resp, err := h.checkout.CreateSession(c.Request.Context(), currentClaims(c).UserID, req.ProductIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// completeCheckoutSession finalizes a session after the browser returns from
// the provider.
func (h *Handler) completeCheckoutSession(c *gin.Context) {
	var req service.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	err := h.checkout.CompleteSession(c.Request.Context(), currentClaims(c).UserID, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order recorded"})
}
