package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foliotap/foliotap/app/repository"
	"github.com/foliotap/foliotap/internal/pkg/usercontext"
)

// HandleGetCurrentSubscription returns the resolved current plan of the
// authenticated user, plus the derived quota set.
func HandleGetCurrentSubscription(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	sub, err := getBillingService().ResolveCurrentSubscription(c.Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	tier, err := getBillingService().CurrentTier(c.Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	response := fiber.Map{
		"subscription": sub,
		"tier": fiber.Map{
			"name":         tier.Name,
			"portfolios":   tier.MaxPortfolios,
			"social_links": tier.MaxSocialLinks,
			"projects":     tier.MaxProjects,
			"competences":  tier.MaxCompetences,
			"experiences":  tier.MaxExperiences,
		},
	}
	return c.JSON(response)
}

// HandleListSubscriptions returns the full subscription history newest-first.
func HandleListSubscriptions(c *fiber.Ctx) error {
	subs, err := repository.GetGlobalRepositories().Subscription.GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subs})
}

// HandleCancelSubscription flips one history row to cancelled. The row keeps
// its place in the history, so a cancelled newest row still resolves as the
// current plan.
func HandleCancelSubscription(c *fiber.Ctx) error {
	subID, err := c.ParamsInt("id")
	if err != nil || subID <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Identifiant invalide", err)
	}

	sub, err := getBillingService().CancelSubscription(c.Context(), usercontext.GetUserID(c), uint(subID))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleListInvoices returns the authenticated user's invoices.
func HandleListInvoices(c *fiber.Ctx) error {
	invoices, err := repository.GetGlobalRepositories().Invoice.GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

// HandleListOrders returns the authenticated user's orders.
func HandleListOrders(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	orders, err := repository.GetGlobalRepositories().Order.GetByUserID(usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}
