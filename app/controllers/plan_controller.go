package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foliotap/foliotap/app/repository"
	"github.com/foliotap/foliotap/internal/pkg/entitlements"
)

// HandleListPlans returns the public plan catalog with the quota set
// attached to each plan.
func HandleListPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.ListPublic()
	if err != nil {
		return handleServiceError(c, err)
	}

	out := make([]fiber.Map, 0, len(plans))
	for _, plan := range plans {
		tier := entitlements.TierForSlug(plan.Slug)
		out = append(out, fiber.Map{
			"id":       plan.ID,
			"slug":     plan.Slug,
			"name":     plan.Name,
			"price":    plan.Price,
			"currency": plan.Currency,
			"features": plan.FeaturesJSON,
			"quotas": fiber.Map{
				"portfolios":   tier.MaxPortfolios,
				"social_links": tier.MaxSocialLinks,
				"projects":     tier.MaxProjects,
				"competences":  tier.MaxCompetences,
				"experiences":  tier.MaxExperiences,
			},
		})
	}

	return c.JSON(fiber.Map{"plans": out})
}
