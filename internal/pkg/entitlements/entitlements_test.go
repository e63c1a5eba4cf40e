package entitlements

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotap/foliotap/app/models"
)

func TestTierForSlug(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{slug: "free", want: "Free"},
		{slug: "gratuit", want: "Free"},
		{slug: "  FREE  ", want: "Free"},
		{slug: "starter", want: "Starter"},
		{slug: "standard", want: "Starter"},
		{slug: "professional", want: "Professional"},
		{slug: "pro", want: "Professional"},
		{slug: "premium", want: "Premium"},
		{slug: "premium_annual", want: "Premium"},
		{slug: "business", want: "Business"},
		{slug: "enterprise-typo", want: "Business"},
		{slug: "", want: "Business"},
	}

	for _, tt := range tests {
		if got := TierForSlug(tt.slug); got.Name != tt.want {
			t.Fatalf("TierForSlug(%q) = %q, want %q", tt.slug, got.Name, tt.want)
		}
	}
}

func TestTierForSubscription(t *testing.T) {
	assert.Equal(t, "Free", TierForSubscription(nil).Name)
	assert.Equal(t, "Free", TierForSubscription(&models.Subscription{}).Name)

	sub := &models.Subscription{Plan: &models.Plan{Slug: "starter"}}
	assert.Equal(t, "Starter", TierForSubscription(sub).Name)
}

func TestCheckPortfolioCount(t *testing.T) {
	free := TierForSlug("free")
	require.NoError(t, CheckPortfolioCount(free, 0))

	err := CheckPortfolioCount(free, 1)
	require.Error(t, err)
	var qe *QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "Free", qe.Tier)
	assert.Equal(t, "portfolios", qe.Limit)

	business := TierForSlug("business")
	assert.NoError(t, CheckPortfolioCount(business, 100000))
}

func TestCheckPortfolioPayload(t *testing.T) {
	t.Run("starter rejects four projects", func(t *testing.T) {
		err := CheckPortfolioPayload(TierForSlug("starter"), PayloadCounts{Projects: 4})
		require.Error(t, err)
		var qe *QuotaError
		require.True(t, errors.As(err, &qe))
		assert.Equal(t, "Starter", qe.Tier)
		assert.Equal(t, 3, qe.Max)
		assert.Contains(t, qe.Reason, "Starter")
		assert.Contains(t, qe.Reason, "3")
	})

	t.Run("free rejects any project payload", func(t *testing.T) {
		err := CheckPortfolioPayload(TierForSlug("free"), PayloadCounts{Projects: 1})
		require.Error(t, err)
	})

	t.Run("free rejects any experience payload", func(t *testing.T) {
		err := CheckPortfolioPayload(TierForSlug("gratuit"), PayloadCounts{Experiences: 1})
		require.Error(t, err)
	})

	t.Run("professional allows unlimited social links", func(t *testing.T) {
		err := CheckPortfolioPayload(TierForSlug("pro"), PayloadCounts{SocialLinks: 500, Projects: 10})
		require.NoError(t, err)
	})

	t.Run("premium caps social links at five", func(t *testing.T) {
		err := CheckPortfolioPayload(TierForSlug("premium"), PayloadCounts{SocialLinks: 6})
		require.Error(t, err)
	})

	t.Run("unknown slug is unrestricted", func(t *testing.T) {
		err := CheckPortfolioPayload(TierForSlug("mystery"), PayloadCounts{
			SocialLinks: 99, Projects: 99, Competences: 99, Experiences: 99,
		})
		require.NoError(t, err)
	})
}
