package repository

import (
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

type portfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new portfolio repository instance
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("SocialLinks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Competences", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *portfolioRepository) GetByID(id uint) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := r.preloaded().First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *portfolioRepository) GetBySlug(slug string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := r.preloaded().Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *portfolioRepository) GetByUserID(userID uint) ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	err := r.preloaded().Where("user_id = ?", userID).
		Order("created_at DESC").Find(&portfolios).Error
	return portfolios, err
}

func (r *portfolioRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Portfolio{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Delete soft deletes a portfolio
func (r *portfolioRepository) Delete(id uint) error {
	return r.db.Delete(&models.Portfolio{}, id).Error
}

func (r *portfolioRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Portfolio{}).Count(&count).Error
	return count, err
}
