package api

import (
	"encoding/json"
	"io"
	"net/http"

	"music-store/internal/payments"
	"music-store/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const webhookBodyLimit = 1 << 20 // 1MiB

// stripeWebhook ingests provider events. Signature verification is the only
// authentication on this path, so the raw body must be verified before it is
// parsed or trusted in any way.
func (h *Handler) stripeWebhook(c *gin.Context) {
	if h.webhookSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe webhook is not fully configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Stripe signature header"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		util.WebhookSignatureFailuresTotal.Inc()
		h.logger.Warn("Stripe webhook signature validation failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Stripe signature"})
		return
	}

	util.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			h.logger.Error("Failed to decode webhook session object",
				zap.String("event_id", event.ID),
				zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed event payload"})
			return
		}

		if err := h.reconciler.Reconcile(c.Request.Context(), payments.FromStripeSession(&session)); err != nil {
			h.logger.Error("Stripe webhook processing failed",
				zap.String("event_id", event.ID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process Stripe webhook event"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
