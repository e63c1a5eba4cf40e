package portfolio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
	"github.com/foliotap/foliotap/internal/pkg/entitlements"
)

// fakeRepository is an in-memory Repository for service tests. Transaction
// snapshots the stored portfolios and restores them when fn errors, matching
// the rollback the real implementation gets from the database.
type fakeRepository struct {
	nextID     uint
	sub        *models.Subscription
	portfolios map[uint]*models.Portfolio
}

func newFakeRepository(planSlug string) *fakeRepository {
	f := &fakeRepository{portfolios: map[uint]*models.Portfolio{}}
	if planSlug != "" {
		f.sub = &models.Subscription{
			ID:     1,
			UserID: 1,
			Status: models.SUBSCRIPTION_STATUS_ACTIVE,
			Plan:   &models.Plan{ID: 1, Slug: planSlug},
		}
	}
	return f
}

func (f *fakeRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	snapshot := make(map[uint]*models.Portfolio, len(f.portfolios))
	for id, p := range f.portfolios {
		cp := *p
		snapshot[id] = &cp
	}
	if err := fn(f); err != nil {
		f.portfolios = snapshot
		return err
	}
	return nil
}

func (f *fakeRepository) CurrentSubscription(userID uint) (*models.Subscription, error) {
	if f.sub != nil && f.sub.UserID == userID {
		return f.sub, nil
	}
	return nil, nil
}

func (f *fakeRepository) CountOwnedForUpdate(userID uint) (int64, error) {
	var owned int64
	for _, p := range f.portfolios {
		if p.UserID == userID {
			owned++
		}
	}
	return owned, nil
}

func (f *fakeRepository) GetForUpdate(id uint) (*models.Portfolio, error) {
	p, ok := f.portfolios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepository) Create(p *models.Portfolio) error {
	f.nextID++
	p.ID = f.nextID
	f.portfolios[p.ID] = p
	return nil
}

func (f *fakeRepository) Save(p *models.Portfolio) error {
	f.portfolios[p.ID] = p
	return nil
}

func (f *fakeRepository) DeleteChildren(portfolioID uint) error {
	p, ok := f.portfolios[portfolioID]
	if !ok {
		return nil
	}
	cp := *p
	cp.SocialLinks = nil
	cp.Projects = nil
	cp.Competences = nil
	cp.Experiences = nil
	f.portfolios[portfolioID] = &cp
	return nil
}

func (f *fakeRepository) childRows() int {
	total := 0
	for _, p := range f.portfolios {
		total += len(p.SocialLinks) + len(p.Projects) + len(p.Competences) + len(p.Experiences)
	}
	return total
}

func projects(n int) []ProjectInput {
	out := make([]ProjectInput, n)
	for i := range out {
		out[i] = ProjectInput{Title: "p"}
	}
	return out
}

func TestCreateQuotaFailureLeavesNothingPersisted(t *testing.T) {
	repo := newFakeRepository("starter")
	svc := NewService(repo)

	// Starter allows 3 projects; the whole request fails, nothing is written.
	_, err := svc.Create(context.Background(), 1, Input{
		Title:    "Studio",
		Projects: projects(4),
	})
	require.Error(t, err)

	var quotaErr *entitlements.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, "projects", quotaErr.Limit)

	assert.Empty(t, repo.portfolios, "no portfolio row may survive a quota failure")
	assert.Zero(t, repo.childRows(), "no child row may survive a quota failure")
}

func TestCreatePortfolioCountQuota(t *testing.T) {
	repo := newFakeRepository("") // no history resolves as the free tier
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), 1, Input{Title: "Un"})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	// Free allows a single portfolio.
	_, err = svc.Create(context.Background(), 1, Input{Title: "Deux"})
	var quotaErr *entitlements.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, "portfolios", quotaErr.Limit)
	assert.Len(t, repo.portfolios, 1)
}

func TestCreateWithinQuotaPersistsChildren(t *testing.T) {
	repo := newFakeRepository("starter")
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, Input{
		Title:       "Studio",
		Projects:    projects(3),
		SocialLinks: []SocialLinkInput{{Label: "site", URL: "https://example.com"}},
	})
	require.NoError(t, err)
	assert.Len(t, created.Projects, 3)
	assert.Equal(t, 4, repo.childRows())
}

func TestUpdateQuotaFailureKeepsExistingRows(t *testing.T) {
	repo := newFakeRepository("starter")
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, Input{
		Title:    "Studio",
		Projects: projects(2),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 1, created.ID, Input{
		Title:    "Studio v2",
		Projects: projects(4),
	})
	var quotaErr *entitlements.QuotaError
	require.ErrorAs(t, err, &quotaErr)

	stored := repo.portfolios[created.ID]
	assert.Equal(t, "Studio", stored.Title, "update must not leak on failure")
	assert.Len(t, stored.Projects, 2, "children stay intact on failure")
}

func TestUpdateOwnership(t *testing.T) {
	repo := newFakeRepository("starter")
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, Input{Title: "Studio"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 2, created.ID, Input{Title: "Vol"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(context.Background(), 1, created.ID+100, Input{Title: "Introuvable"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayloadCounts(t *testing.T) {
	in := Input{
		SocialLinks: []SocialLinkInput{{Label: "x", URL: "https://x.com/a"}},
		Projects:    []ProjectInput{{Title: "p1"}, {Title: "p2"}},
		Competences: []CompetenceInput{{Name: "go"}, {Name: "sql"}, {Name: "css"}},
	}
	counts := payloadCounts(in)
	assert.Equal(t, 1, counts.SocialLinks)
	assert.Equal(t, 2, counts.Projects)
	assert.Equal(t, 3, counts.Competences)
	assert.Equal(t, 0, counts.Experiences)
}

func TestSlugify(t *testing.T) {
	slug := slugify("Mon Portfolio Été 2025!")
	assert.True(t, strings.HasPrefix(slug, "mon-portfolio-t-2025-"), slug)
	assert.NotEqual(t, slugify("x"), slugify("x"))

	assert.True(t, strings.HasPrefix(slugify("???"), "portfolio-"))
}

func TestBuildPortfolioAttachesChildrenInOrder(t *testing.T) {
	p := buildPortfolio(7, Input{
		Title: "Studio",
		Projects: []ProjectInput{
			{Title: "first"},
			{Title: "second"},
		},
	})
	assert.Equal(t, uint(7), p.UserID)
	assert.Len(t, p.Projects, 2)
	assert.Equal(t, 0, p.Projects[0].Position)
	assert.Equal(t, 1, p.Projects[1].Position)
	assert.NotEmpty(t, p.Slug)
}
