package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foliotap/foliotap/internal/pkg/billing"
	"github.com/foliotap/foliotap/internal/pkg/usercontext"
)

type createCheckoutRequest struct {
	PlanID uint `json:"plan_id"`
}

type confirmCheckoutRequest struct {
	Reference string `json:"reference"`
	Method    string `json:"method"`
}

// HandleCreateCheckout opens a checkout session for the authenticated user
// and the chosen plan.
func HandleCreateCheckout(c *fiber.Ctx) error {
	var req createCheckoutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.PlanID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Formule manquante", nil)
	}

	result, err := getBillingService().CreateCheckout(c.Context(), usercontext.GetUserID(c), req.PlanID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleGetCheckout returns the checkout session behind an opaque token. The
// token itself is the capability; no ownership check is applied on reads so
// the hosted payment page can render it.
func HandleGetCheckout(c *fiber.Ctx) error {
	session, err := getBillingService().GetCheckout(c.Context(), c.Params("token"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":      session.Token,
		"status":     session.Status,
		"expires_at": session.ExpiresAt,
		"plan": fiber.Map{
			"id":       session.Plan.ID,
			"slug":     session.Plan.Slug,
			"name":     session.Plan.Name,
			"price":    session.Plan.Price,
			"currency": session.Plan.Currency,
		},
		"order": fiber.Map{
			"id":           session.Order.ID,
			"order_number": session.Order.OrderNumber,
			"status":       session.Order.Status,
			"total":        session.Order.TotalAmount,
		},
	})
}

// HandleConfirmCheckout records the customer's payment declaration. The
// payment stays pending until an admin validates it.
func HandleConfirmCheckout(c *fiber.Ctx) error {
	var req confirmCheckoutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := getBillingService().ConfirmCheckout(c.Context(), usercontext.GetUserID(c), c.Params("token"), billing.ConfirmCheckoutInput{
		Reference: req.Reference,
		Method:    req.Method,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":  session.Token,
		"status": session.Status,
	})
}
