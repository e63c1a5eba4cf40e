package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/foliotap/foliotap/internal/pkg/billing"
	"github.com/foliotap/foliotap/internal/pkg/env"
)

type webhookEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	PaymentID uint   `json:"payment_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// HandlePaymentWebhook ingests provider payment events. Events are recorded
// with a uniqueness guard on (provider, event id), so redelivered events are
// acknowledged without re-running side effects.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	secret := env.GetEnv("WEBHOOK_SECRET", "")
	signature := c.Get("X-Webhook-Signature")

	if secret == "" || !billing.VerifyWebhookSignature(payload, signature, secret) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_signature", "Signature de webhook invalide", nil)
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Corps de requête illisible", err)
	}
	if event.ID == "" || event.PaymentID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Événement incomplet", nil)
	}

	provider := c.Params("provider", "generic")

	created, payment, err := getBillingService().HandleWebhookEvent(c.Context(), billing.WebhookInput{
		Provider:        provider,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
		PaymentID:       event.PaymentID,
		RawStatus:       event.Status,
		Reason:          event.Reason,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	response := fiber.Map{"received": true, "replay": !created}
	if payment != nil {
		response["payment_status"] = payment.Status
	}
	return c.JSON(response)
}
