package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	INVOICE_STATUS_DRAFT    = "draft"
	INVOICE_STATUS_PAID     = "paid"
	INVOICE_STATUS_REFUNDED = "refunded"
)

// Invoice is the billing document materialized from a successful or refunded
// payment. Refund invoices carry a negative amount.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	PlanID    *uint     `gorm:"index" json:"plan_id,omitempty"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Currency  string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Reference string    `gorm:"type:varchar(100);index" json:"reference"`
	Status    string    `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// NewInvoiceReference generates an invoice reference.
func NewInvoiceReference() string {
	return fmt.Sprintf("INV-%s", uuid.NewString())
}
