package repository

import (
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByID(id uint) (*models.PaymentRecord, error) {
	var payment models.PaymentRecord
	err := r.db.Preload("Order").Preload("Invoice").First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByOrderID(orderID uint) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListByStatus(status string, offset, limit int) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := r.db.Preload("Order").Where("status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&payments).Error
	return payments, err
}
