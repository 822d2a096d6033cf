package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tourbook/internal/logger"
	"tourbook/internal/payment/webhook"
	"tourbook/internal/utils"
)

// maxPayloadBytes matches Stripe's documented upper bound for event bodies.
const maxPayloadBytes = 65536

type EventHandler interface {
	Handle(ctx context.Context, payload []byte, signatureHeader string) (*webhook.Result, error)
}

type StripeHandler struct {
	reconciler EventHandler
	logger     *logger.Logger
}

func NewStripeHandler(reconciler EventHandler, logger *logger.Logger) *StripeHandler {
	return &StripeHandler{reconciler: reconciler, logger: logger}
}

// Register mounts the webhook and health routes.
func (h *StripeHandler) Register(r gin.IRouter) {
	r.POST("/webhooks/stripe", h.HandleWebhook)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.SuccessResponse("ok", nil))
	})
}

// HandleWebhook reads the raw body untouched; signature verification needs
// the exact bytes Stripe signed.
func (h *StripeHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("WEBHOOK", fmt.Sprintf("Rejected webhook payload over %d bytes", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, utils.ErrorResponse("Webhook payload too large", "body exceeds limit"))
			return
		}
		h.logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid webhook payload", "could not read body"))
		return
	}

	res, err := h.reconciler.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var werr *webhook.WebhookError
		if errors.As(err, &werr) {
			h.logger.Error("WEBHOOK", fmt.Sprintf("[%s] %s", werr.Category, werr.InternalError))
			c.JSON(werr.StatusCode, utils.ErrorResponse(werr.PublicError, werr.Category))
			return
		}
		h.logger.Error("WEBHOOK", fmt.Sprintf("Unexpected webhook failure: %v", err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Webhook processing error", "internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"eventId":  res.EventID,
		"outcome":  res.Outcome,
	})
}
