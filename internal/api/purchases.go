package api

import (
	"net/http"
	"strconv"

	"music-store/internal/util"

	"github.com/gin-gonic/gin"
)

// listPurchases returns the caller's paid purchases, newest first.
func (h *Handler) listPurchases(c *gin.Context) {
	purchases, err := h.entitlement.ListPurchases(c.Request.Context(), currentClaims(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchases)
}

// downloadPurchase streams an entitled file as an attachment.
func (h *Handler) downloadPurchase(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	format := c.DefaultQuery("format", "pdf")

	download, err := h.entitlement.ResolveDownload(c.Request.Context(), currentClaims(c).UserID, productID, format)
	if err != nil {
		h.respondError(c, err)
		return
	}

	util.DownloadsTotal.WithLabelValues(download.Format).Inc()
	c.FileAttachment(download.Path, download.Filename)
}
