package repository

import (
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Preload("Plan").First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByUserID(userID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Preload("Plan").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) List(offset, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).Count(&count).Error
	return count, err
}

// SumAmountByStatus aggregates invoice amounts for one status. Refund
// invoices carry negative amounts, so summing paid and refunded statuses
// together yields net revenue.
func (r *invoiceRepository) SumAmountByStatus(status string) (int64, error) {
	var total int64
	err := r.db.Model(&models.Invoice{}).Where("status = ?", status).
		Select("COALESCE(SUM(amount), 0)").Row().Scan(&total)
	return total, err
}
