package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/internal/pkg/billing"
	"github.com/foliotap/foliotap/internal/pkg/entitlements"
	"github.com/foliotap/foliotap/internal/pkg/env"
	"github.com/foliotap/foliotap/internal/pkg/paymentstatus"
	"github.com/foliotap/foliotap/internal/pkg/portfolio"
)

// jsonError writes a JSON error body. In non-production environments the
// underlying error is included under "detail" to ease debugging.
func jsonError(c *fiber.Ctx, status int, code, message string, err error) error {
	body := fiber.Map{
		"error":   code,
		"message": message,
	}
	if err != nil && !env.IsProduction() {
		body["detail"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

// handleServiceError maps domain errors from the billing and portfolio
// services onto HTTP statuses. Unknown errors become a 500.
func handleServiceError(c *fiber.Ctx, err error) error {
	var quotaErr *entitlements.QuotaError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, billing.ErrNotFound),
		errors.Is(err, portfolio.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Ressource introuvable", err)
	case errors.Is(err, billing.ErrForbidden), errors.Is(err, portfolio.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Accès refusé", err)
	case errors.Is(err, billing.ErrCheckoutExpired):
		return jsonError(c, fiber.StatusConflict, "checkout_expired", "La session de paiement a expiré", err)
	case errors.Is(err, billing.ErrCheckoutCancelled):
		return jsonError(c, fiber.StatusConflict, "checkout_cancelled", "La session de paiement a été annulée", err)
	case errors.Is(err, billing.ErrEmailTaken):
		return jsonError(c, fiber.StatusConflict, "email_taken", "Cette adresse email est déjà utilisée", err)
	case errors.Is(err, paymentstatus.ErrInvalidTransition):
		return jsonError(c, fiber.StatusConflict, "invalid_transition", "Transition de statut non autorisée", err)
	case errors.Is(err, billing.ErrValidation):
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Données invalides", err)
	case errors.As(err, &quotaErr):
		return jsonError(c, fiber.StatusUnprocessableEntity, "quota_exceeded", quotaErr.Reason, err)
	case errors.As(err, &validationErrs):
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Données invalides", err)
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Une erreur interne est survenue", err)
	}
}

// parseBody binds the request body and normalizes bad-payload errors.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Corps de requête illisible", err)
	}
	return nil
}
