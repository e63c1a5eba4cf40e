package repository

import (
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

type checkoutSessionRepository struct {
	db *gorm.DB
}

// NewCheckoutSessionRepository creates a new checkout session repository instance
func NewCheckoutSessionRepository(db *gorm.DB) CheckoutSessionRepository {
	return &checkoutSessionRepository{db: db}
}

func (r *checkoutSessionRepository) GetByToken(token string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.Preload("Plan").Preload("Order").Preload("Payment").
		Where("token = ?", token).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByStatus returns sessions in one state, oldest first, for the admin
// validation queue.
func (r *checkoutSessionRepository) ListByStatus(status string, offset, limit int) ([]models.CheckoutSession, error) {
	var sessions []models.CheckoutSession
	err := r.db.Preload("Plan").Preload("Payment").
		Where("status = ?", status).
		Order("created_at ASC").Offset(offset).Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
