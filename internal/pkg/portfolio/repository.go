package portfolio

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foliotap/foliotap/app/models"
)

// Repository provides the DB operations behind portfolio writes. The service
// funnels every quota-guarded write through Transaction so the check and the
// writes share one snapshot, and so the whole set can be tested against a
// fake.
type Repository interface {
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error

	// CurrentSubscription returns the user's newest history row with its
	// plan joined, or nil when none exists.
	CurrentSubscription(userID uint) (*models.Subscription, error)

	// CountOwnedForUpdate counts the user's portfolios under a row lock, so
	// two concurrent creations cannot both pass the quota check.
	CountOwnedForUpdate(userID uint) (int64, error)

	GetForUpdate(id uint) (*models.Portfolio, error)
	Create(p *models.Portfolio) error
	Save(p *models.Portfolio) error
	DeleteChildren(portfolioID uint) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a portfolio repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) CurrentSubscription(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CountOwnedForUpdate(userID uint) (int64, error) {
	var owned int64
	err := r.db.Model(&models.Portfolio{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Count(&owned).Error
	return owned, err
}

func (r *gormRepository) GetForUpdate(id uint) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) Create(p *models.Portfolio) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) Save(p *models.Portfolio) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(p).Error
}

func (r *gormRepository) DeleteChildren(portfolioID uint) error {
	for _, model := range []any{
		&models.SocialLink{}, &models.Project{}, &models.Competence{}, &models.Experience{},
	} {
		if err := r.db.Where("portfolio_id = ?", portfolioID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
