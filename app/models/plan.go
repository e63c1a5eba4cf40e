package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Plan is a purchasable subscription tier. Price is stored in minor currency
// units (cents). Quota limits are not stored here; they are derived from the
// slug by the entitlements package.
type Plan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Slug         string    `gorm:"uniqueIndex;type:varchar(50);not null" json:"slug" validate:"required,lowercase,min=2,max=50"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	Description  string    `gorm:"type:text" json:"description"`
	Price        int64     `gorm:"not null;default:0" json:"price"`
	Currency     string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency" validate:"required,len=3"`
	FeaturesJSON string    `gorm:"type:text" json:"features_json"`
	IsPublic     bool      `gorm:"default:true;index" json:"is_public"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Plan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// IsFree reports whether subscribing to this plan requires no payment.
func (p *Plan) IsFree() bool {
	return p.Price == 0
}
