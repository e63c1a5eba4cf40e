package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stored (display) payment statuses. The product surface is French; the
// paymentstatus package maps these to and from canonical values.
const (
	PAYMENT_STATUS_PENDING  = "En_attente"
	PAYMENT_STATUS_SUCCESS  = "Réussi"
	PAYMENT_STATUS_FAILED   = "Échoué"
	PAYMENT_STATUS_REFUNDED = "Remboursé"
)

// PaymentRecord is a payment attempt against an order. An order has at most
// one effective (non-cancelled) payment in the normal flow; the schema does
// not enforce this, the billing service preserves it.
type PaymentRecord struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OrderID      uint           `gorm:"not null;index" json:"order_id"`
	Method       string         `gorm:"type:varchar(50)" json:"method"`
	Reference    string         `gorm:"type:varchar(100);index" json:"reference"`
	Amount       int64          `gorm:"not null;default:0" json:"amount"`
	Currency     string         `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Status       string         `gorm:"type:varchar(20);not null;default:'En_attente';index" json:"status"`
	ReceiptURL   string         `gorm:"type:varchar(255)" json:"receipt_url,omitempty"`
	MetadataJSON string         `gorm:"type:text" json:"metadata_json,omitempty"`
	InvoiceID    *uint          `gorm:"index" json:"invoice_id,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Order   *Order   `gorm:"foreignKey:OrderID" json:"-"`
	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// NewPaymentReference generates an opaque payment reference.
func NewPaymentReference() string {
	return fmt.Sprintf("PAY-%s", uuid.NewString())
}
