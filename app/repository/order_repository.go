package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Payments").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByOrderNumber(number string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Payments").Where("order_number = ?", number).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUserID(userID uint, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) List(offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Count(&count).Error
	return count, err
}

// UpdateStatus advances an order's fulfilment status
func (r *orderRepository) UpdateStatus(id uint, status string) error {
	if !models.IsValidOrderStatus(status) {
		return fmt.Errorf("unknown order status %q", status)
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}
