package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foliotap/foliotap/app/repository"
	"github.com/foliotap/foliotap/internal/pkg/portfolio"
	"github.com/foliotap/foliotap/internal/pkg/usercontext"
)

// HandleCreatePortfolio creates a portfolio with its children in one
// all-or-nothing transaction. Quota violations reject the whole payload.
func HandleCreatePortfolio(c *fiber.Ctx) error {
	var in portfolio.Input
	if err := parseBody(c, &in); err != nil {
		return err
	}

	created, err := getPortfolioService().Create(c.Context(), usercontext.GetUserID(c), in)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"portfolio": created})
}

// HandleUpdatePortfolio replaces a portfolio and its child collections.
func HandleUpdatePortfolio(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Identifiant invalide", err)
	}

	var in portfolio.Input
	if err := parseBody(c, &in); err != nil {
		return err
	}

	updated, err := getPortfolioService().Update(c.Context(), usercontext.GetUserID(c), uint(id), in)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"portfolio": updated})
}

// HandleListPortfolios returns all portfolios of the authenticated user.
func HandleListPortfolios(c *fiber.Ctx) error {
	portfolios, err := repository.GetGlobalRepositories().Portfolio.GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"portfolios": portfolios})
}

// HandleGetPortfolio returns one owned portfolio by id.
func HandleGetPortfolio(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Identifiant invalide", err)
	}

	p, err := repository.GetGlobalRepositories().Portfolio.GetByID(uint(id))
	if err != nil {
		return handleServiceError(c, err)
	}
	if p.UserID != usercontext.GetUserID(c) && !usercontext.IsAdmin(c) {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Accès refusé", nil)
	}
	return c.JSON(fiber.Map{"portfolio": p})
}

// HandleDeletePortfolio removes an owned portfolio.
func HandleDeletePortfolio(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Identifiant invalide", err)
	}

	repos := repository.GetGlobalRepositories()
	p, err := repos.Portfolio.GetByID(uint(id))
	if err != nil {
		return handleServiceError(c, err)
	}
	if p.UserID != usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Accès refusé", nil)
	}

	if err := repos.Portfolio.Delete(p.ID); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// HandlePublicPortfolio serves a published portfolio by slug. This is the
// page an NFC card tap lands on, so it stays unauthenticated.
func HandlePublicPortfolio(c *fiber.Ctx) error {
	p, err := repository.GetGlobalRepositories().Portfolio.GetBySlug(c.Params("slug"))
	if err != nil {
		return handleServiceError(c, err)
	}
	if !p.IsPublished {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Ressource introuvable", nil)
	}
	return c.JSON(fiber.Map{"portfolio": p})
}
