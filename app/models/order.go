package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ORDER_STATUS_PENDING    = "pending"
	ORDER_STATUS_PROCESSING = "processing"
	ORDER_STATUS_SHIPPED    = "shipped"
	ORDER_STATUS_DELIVERED  = "delivered"
	ORDER_STATUS_CANCELLED  = "cancelled"
)

// Order is a purchase (plan upgrade or NFC card) placed by a user.
type Order struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	OrderNumber     string    `gorm:"uniqueIndex;type:varchar(30);not null" json:"order_number"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalAmount     int64     `gorm:"not null;default:0" json:"total_amount"`
	Currency        string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	DeliveryAddress string    `gorm:"type:text" json:"delivery_address,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User     *User           `gorm:"foreignKey:UserID" json:"-"`
	Payments []PaymentRecord `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

// NewOrderNumber generates a human-readable unique order number.
func NewOrderNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("FT-%s", id[:10])
}

// IsValidOrderStatus reports whether s is one of the known order states.
func IsValidOrderStatus(s string) bool {
	switch s {
	case ORDER_STATUS_PENDING, ORDER_STATUS_PROCESSING, ORDER_STATUS_SHIPPED,
		ORDER_STATUS_DELIVERED, ORDER_STATUS_CANCELLED:
		return true
	default:
		return false
	}
}
