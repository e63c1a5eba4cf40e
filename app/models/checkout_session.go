package models

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

const (
	CHECKOUT_STATUS_PENDING   = "pending"
	CHECKOUT_STATUS_CONFIRMED = "confirmed"
	CHECKOUT_STATUS_APPROVED  = "approved"
	CHECKOUT_STATUS_CANCELLED = "cancelled"
)

// CheckoutSession binds a user, plan, order and payment behind one opaque
// token for the duration of a purchase flow. The token is the sole credential
// to read the session, which supports unauthenticated pre-login checkouts.
type CheckoutSession struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Token        string     `gorm:"uniqueIndex;type:varchar(64);not null" json:"token"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	PlanID       uint       `gorm:"not null;index" json:"plan_id"`
	OrderID      uint       `gorm:"not null;index" json:"order_id"`
	PaymentID    uint       `gorm:"not null;index" json:"payment_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ExpiresAt    *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	MetadataJSON string     `gorm:"type:text" json:"metadata_json,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User    *User          `gorm:"foreignKey:UserID" json:"-"`
	Plan    *Plan          `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Order   *Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Payment *PaymentRecord `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}

// checkoutRank orders the forward-only session states. Cancelled is terminal
// and reachable from any non-terminal state.
func checkoutRank(status string) int {
	switch status {
	case CHECKOUT_STATUS_PENDING:
		return 0
	case CHECKOUT_STATUS_CONFIRMED:
		return 1
	case CHECKOUT_STATUS_APPROVED:
		return 2
	default:
		return -1
	}
}

// AdvanceTo moves the session status forward. Backward transitions and
// transitions out of a terminal state are rejected.
func (s *CheckoutSession) AdvanceTo(status string) error {
	if status == s.Status {
		return nil
	}
	if s.Status == CHECKOUT_STATUS_CANCELLED || s.Status == CHECKOUT_STATUS_APPROVED {
		return fmt.Errorf("checkout session is %s and cannot change to %s", s.Status, status)
	}
	if status == CHECKOUT_STATUS_CANCELLED {
		s.Status = status
		return nil
	}
	if checkoutRank(status) <= checkoutRank(s.Status) {
		return fmt.Errorf("checkout session cannot move backward from %s to %s", s.Status, status)
	}
	s.Status = status
	return nil
}

// IsExpired reports whether the session has an expiry in the past.
func (s *CheckoutSession) IsExpired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}

// NewCheckoutToken generates a cryptographically random URL-safe token.
func NewCheckoutToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
