// Package entitlements maps plan slugs to the quantity limits a tier grants
// over portfolios and their sub-resources. Limits are hard-coded by slug
// family; they are intentionally not stored on the Plan row.
package entitlements

import (
	"fmt"
	"strings"

	"github.com/foliotap/foliotap/app/models"
)

// Unlimited marks a quota with no upper bound.
const Unlimited = -1

// Tier is the resolved quota set for a plan slug family.
type Tier struct {
	Name           string
	MaxPortfolios  int
	MaxSocialLinks int
	MaxProjects    int
	MaxCompetences int
	MaxExperiences int
}

var (
	tierFree = Tier{
		Name:           "Free",
		MaxPortfolios:  1,
		MaxSocialLinks: 1,
		MaxProjects:    0,
		MaxCompetences: 0,
		MaxExperiences: 0,
	}
	tierStarter = Tier{
		Name:           "Starter",
		MaxPortfolios:  5,
		MaxSocialLinks: 3,
		MaxProjects:    3,
		MaxCompetences: 3,
		MaxExperiences: 0,
	}
	tierProfessional = Tier{
		Name:           "Professional",
		MaxPortfolios:  20,
		MaxSocialLinks: Unlimited,
		MaxProjects:    10,
		MaxCompetences: 10,
		MaxExperiences: 5,
	}
	tierPremium = Tier{
		Name:           "Premium",
		MaxPortfolios:  Unlimited,
		MaxSocialLinks: 5,
		MaxProjects:    Unlimited,
		MaxCompetences: Unlimited,
		MaxExperiences: Unlimited,
	}
	// Business is exempt from all limits. Unknown slugs resolve to the same
	// unrestricted quota set; a slug typo therefore widens entitlements
	// instead of locking users out.
	tierUnlimited = Tier{
		Name:           "Business",
		MaxPortfolios:  Unlimited,
		MaxSocialLinks: Unlimited,
		MaxProjects:    Unlimited,
		MaxCompetences: Unlimited,
		MaxExperiences: Unlimited,
	}
)

// TierForSlug resolves a plan slug (case-insensitive, trimmed) to its quota
// set.
func TierForSlug(slug string) Tier {
	s := strings.ToLower(strings.TrimSpace(slug))
	switch {
	case s == "free" || s == "gratuit":
		return tierFree
	case s == "starter" || s == "standard":
		return tierStarter
	case s == "professional" || s == "pro":
		return tierProfessional
	case strings.HasPrefix(s, "premium"):
		return tierPremium
	default:
		return tierUnlimited
	}
}

// TierForSubscription resolves the quota set from the user's current
// subscription row. No subscription history behaves as the free tier.
func TierForSubscription(sub *models.Subscription) Tier {
	if sub == nil || sub.Plan == nil {
		return tierFree
	}
	return TierForSlug(sub.Plan.Slug)
}

// PayloadCounts are the child-collection sizes submitted with a portfolio
// create/update request.
type PayloadCounts struct {
	SocialLinks int
	Projects    int
	Competences int
	Experiences int
}

// QuotaError is a tier limit violation. Reason is the user-facing (French)
// message; it names the tier and the exceeded maximum.
type QuotaError struct {
	Tier   string
	Limit  string
	Max    int
	Reason string
}

func (e *QuotaError) Error() string {
	return e.Reason
}

func quotaError(tier Tier, limit string, max int, reason string) *QuotaError {
	return &QuotaError{Tier: tier.Name, Limit: limit, Max: max, Reason: reason}
}

func exceeds(count, max int) bool {
	return max != Unlimited && count > max
}

// CheckPortfolioCount verifies that owning one more portfolio stays within
// the tier quota. existing is the number of portfolios the user already owns.
func CheckPortfolioCount(tier Tier, existing int) error {
	if exceeds(existing+1, tier.MaxPortfolios) {
		return quotaError(tier, "portfolios", tier.MaxPortfolios,
			fmt.Sprintf("Le plan %s autorise au maximum %d portfolio(s)", tier.Name, tier.MaxPortfolios))
	}
	return nil
}

// CheckPortfolioPayload verifies every child collection of a portfolio
// payload against the tier limits. The whole request fails on the first
// violation; zero-limit tiers reject any payload outright instead of
// truncating it.
func CheckPortfolioPayload(tier Tier, counts PayloadCounts) error {
	if exceeds(counts.SocialLinks, tier.MaxSocialLinks) {
		return quotaError(tier, "social_links", tier.MaxSocialLinks,
			fmt.Sprintf("Le plan %s autorise au maximum %d lien(s) social(aux)", tier.Name, tier.MaxSocialLinks))
	}
	if exceeds(counts.Projects, tier.MaxProjects) {
		return quotaError(tier, "projects", tier.MaxProjects,
			fmt.Sprintf("Le plan %s autorise au maximum %d projet(s)", tier.Name, tier.MaxProjects))
	}
	if exceeds(counts.Competences, tier.MaxCompetences) {
		return quotaError(tier, "competences", tier.MaxCompetences,
			fmt.Sprintf("Le plan %s autorise au maximum %d compétence(s)", tier.Name, tier.MaxCompetences))
	}
	if exceeds(counts.Experiences, tier.MaxExperiences) {
		return quotaError(tier, "experiences", tier.MaxExperiences,
			fmt.Sprintf("Le plan %s autorise au maximum %d expérience(s)", tier.Name, tier.MaxExperiences))
	}
	return nil
}
