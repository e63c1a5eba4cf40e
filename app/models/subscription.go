package models

import "time"

const (
	SUBSCRIPTION_STATUS_ACTIVE    = "active"
	SUBSCRIPTION_STATUS_CANCELLED = "cancelled"
)

// Subscription is one row of the append-only plan assignment history. Rows
// are only ever inserted; the current plan of a user is the most recently
// created row, independent of start/end dates. Cancellation flips the status
// flag on a row and deliberately does not change that resolution.
type Subscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	PlanID           *uint      `gorm:"index" json:"plan_id,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Amount           int64      `gorm:"not null;default:0" json:"amount"`
	StartDate        *time.Time `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	EndDate          *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	PaymentReference string     `gorm:"type:varchar(100)" json:"payment_reference,omitempty"`
	MetadataJSON     string     `gorm:"type:text" json:"metadata_json,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}
