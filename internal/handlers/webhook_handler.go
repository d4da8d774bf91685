package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shoplyne/commerce-backend/internal/billing"
	"github.com/shoplyne/commerce-backend/internal/dto"
	"github.com/shoplyne/commerce-backend/internal/tenant"
)

type WebhookHandler struct {
	events   *billing.EventService
	registry *tenant.Registry
}

func NewWebhookHandler(events *billing.EventService, registry *tenant.Registry) *WebhookHandler {
	return &WebhookHandler{events: events, registry: registry}
}

// HandleBilling routes payment-processor webhooks by :tenant_id path param
// with per-tenant shared-secret auth.
func (h *WebhookHandler) HandleBilling(c *fiber.Ctx) error {
	tenantID := c.Params("tenant_id")
	if tenantID == "" || !h.registry.Exists(tenantID) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown tenant",
		})
	}

	expectedAuth := h.registry.GetWebhookSecret(tenantID)
	if expectedAuth == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured for this tenant",
		})
	}

	authHeader := c.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(expectedAuth)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var webhook dto.ProcessorWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.events.HandleProcessorEvent(tenantID, &webhook.Event); err != nil {
		slog.Error("webhook processing failed", "tenant_id", tenantID, "event_type", webhook.Event.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "tenant_id", tenantID, "event_type", webhook.Event.Type)
	return c.JSON(fiber.Map{"received": true})
}
