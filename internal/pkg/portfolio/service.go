// Package portfolio wraps portfolio create/update in a single transaction
// that re-checks plan entitlements against the incoming payload before any
// write. Either the parent and all submitted children commit together, or
// nothing does.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
	"github.com/foliotap/foliotap/internal/pkg/entitlements"
)

var (
	ErrNotFound  = errors.New("portfolio not found")
	ErrForbidden = errors.New("portfolio does not belong to this user")
)

type SocialLinkInput struct {
	Label string `json:"label" validate:"required,max=50"`
	URL   string `json:"url" validate:"required,url,max=255"`
}

type ProjectInput struct {
	Title       string `json:"title" validate:"required,max=150"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	ProjectURL  string `json:"project_url"`
}

type CompetenceInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Level string `json:"level"`
}

type ExperienceInput struct {
	Company     string     `json:"company" validate:"required,max=150"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type Input struct {
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Headline    string            `json:"headline"`
	Bio         string            `json:"bio"`
	AvatarURL   string            `json:"avatar_url"`
	IsPublished bool              `json:"is_published"`
	SocialLinks []SocialLinkInput `json:"social_links"`
	Projects    []ProjectInput    `json:"projects"`
	Competences []CompetenceInput `json:"competences"`
	Experiences []ExperienceInput `json:"experiences"`
}

// Service enforces tier quotas around portfolio writes.
type Service struct {
	repo Repository
}

// NewService creates a portfolio service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a portfolio service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// payloadCounts derives the child-collection sizes from the request payload.
func payloadCounts(in Input) entitlements.PayloadCounts {
	return entitlements.PayloadCounts{
		SocialLinks: len(in.SocialLinks),
		Projects:    len(in.Projects),
		Competences: len(in.Competences),
		Experiences: len(in.Experiences),
	}
}

// currentTier resolves the user's quota set inside the given transaction, so
// the check and the writes see the same snapshot.
func currentTier(tx Repository, userID uint) (entitlements.Tier, error) {
	sub, err := tx.CurrentSubscription(userID)
	if err != nil {
		return entitlements.Tier{}, err
	}
	return entitlements.TierForSubscription(sub), nil
}

// Create persists a portfolio with its submitted children, or nothing. The
// owned-portfolio count is read under a row lock so two concurrent creations
// cannot both pass the quota check.
func (s *Service) Create(ctx context.Context, userID uint, in Input) (*models.Portfolio, error) {
	var created *models.Portfolio
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		tier, err := currentTier(tx, userID)
		if err != nil {
			return err
		}

		owned, err := tx.CountOwnedForUpdate(userID)
		if err != nil {
			return err
		}

		if err := entitlements.CheckPortfolioCount(tier, int(owned)); err != nil {
			return err
		}
		if err := entitlements.CheckPortfolioPayload(tier, payloadCounts(in)); err != nil {
			return err
		}

		p := buildPortfolio(userID, in)
		if err := p.Validate(); err != nil {
			return err
		}
		if err := tx.Create(p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces a portfolio's fields and child collections after
// re-checking the payload against the owner's current tier. The portfolio
// count check does not apply to updates.
func (s *Service) Update(ctx context.Context, userID, portfolioID uint, in Input) (*models.Portfolio, error) {
	var updated *models.Portfolio
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.GetForUpdate(portfolioID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if existing.UserID != userID {
			return ErrForbidden
		}

		tier, err := currentTier(tx, userID)
		if err != nil {
			return err
		}
		if err := entitlements.CheckPortfolioPayload(tier, payloadCounts(in)); err != nil {
			return err
		}

		existing.Title = in.Title
		if in.Slug != "" {
			existing.Slug = normalizeSlug(in.Slug)
		}
		existing.Headline = in.Headline
		existing.Bio = in.Bio
		existing.AvatarURL = in.AvatarURL
		existing.IsPublished = in.IsPublished
		if err := existing.Validate(); err != nil {
			return err
		}

		// Full replace of child collections.
		if err := tx.DeleteChildren(existing.ID); err != nil {
			return err
		}

		attachChildren(existing, in)
		if err := tx.Save(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func buildPortfolio(userID uint, in Input) *models.Portfolio {
	slug := in.Slug
	if slug == "" {
		slug = slugify(in.Title)
	}
	p := &models.Portfolio{
		UserID:      userID,
		Title:       in.Title,
		Slug:        normalizeSlug(slug),
		Headline:    in.Headline,
		Bio:         in.Bio,
		AvatarURL:   in.AvatarURL,
		IsPublished: in.IsPublished,
	}
	attachChildren(p, in)
	return p
}

func attachChildren(p *models.Portfolio, in Input) {
	p.SocialLinks = make([]models.SocialLink, 0, len(in.SocialLinks))
	for i, l := range in.SocialLinks {
		p.SocialLinks = append(p.SocialLinks, models.SocialLink{Label: l.Label, URL: l.URL, Position: i})
	}
	p.Projects = make([]models.Project, 0, len(in.Projects))
	for i, pr := range in.Projects {
		p.Projects = append(p.Projects, models.Project{
			Title: pr.Title, Description: pr.Description,
			ImageURL: pr.ImageURL, ProjectURL: pr.ProjectURL, Position: i,
		})
	}
	p.Competences = make([]models.Competence, 0, len(in.Competences))
	for i, c := range in.Competences {
		p.Competences = append(p.Competences, models.Competence{Name: c.Name, Level: c.Level, Position: i})
	}
	p.Experiences = make([]models.Experience, 0, len(in.Experiences))
	for i, e := range in.Experiences {
		p.Experiences = append(p.Experiences, models.Experience{
			Company: e.Company, Title: e.Title, Description: e.Description,
			StartDate: e.StartDate, EndDate: e.EndDate, Position: i,
		})
	}
}

func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// slugify derives a URL slug from a title, with a random suffix to keep the
// unique index happy across users with the same title.
func slugify(title string) string {
	base := normalizeSlug(title)
	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "portfolio"
	}
	return fmt.Sprintf("%s-%s", slug, uuid.NewString()[:8])
}
