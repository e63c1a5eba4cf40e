package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByUserID returns the subscription history newest-first. This ordering
// is the current-plan resolution contract.
func (r *subscriptionRepository) GetByUserID(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&subs).Error
	return subs, err
}

// CurrentByUserID resolves the most recently created history row, or nil
// when the user has none.
func (r *subscriptionRepository) CurrentByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).
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

func (r *subscriptionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Count(&count).Error
	return count, err
}
