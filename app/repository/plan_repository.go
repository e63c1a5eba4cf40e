package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.Plan) error {
	plan.Slug = strings.ToLower(strings.TrimSpace(plan.Slug))
	return r.db.Create(plan).Error
}

func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) GetBySlug(slug string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPublic returns publicly purchasable plans, cheapest first
func (r *planRepository) ListPublic() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("is_public = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) List() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) Update(plan *models.Plan) error {
	return r.db.Save(plan).Error
}
