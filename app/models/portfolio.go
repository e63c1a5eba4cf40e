package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Portfolio is a user's public profile page, optionally linked to an NFC
// card. Child collections are quota-gated by the owner's plan tier.
type Portfolio struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Title       string         `gorm:"type:varchar(150);not null" json:"title" validate:"required,min=2,max=150"`
	Slug        string         `gorm:"uniqueIndex;type:varchar(100);not null" json:"slug" validate:"required,max=100"`
	Headline    string         `gorm:"type:varchar(200)" json:"headline" validate:"max=200"`
	Bio         string         `gorm:"type:text" json:"bio" validate:"max=2000"`
	AvatarURL   string         `gorm:"type:varchar(255)" json:"avatar_url" validate:"max=255"`
	IsPublished bool           `gorm:"default:true;index" json:"is_published"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User        *User        `gorm:"foreignKey:UserID" json:"-"`
	SocialLinks []SocialLink `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"social_links,omitempty"`
	Projects    []Project    `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"projects,omitempty"`
	Competences []Competence `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"competences,omitempty"`
	Experiences []Experience `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"experiences,omitempty"`
}

func (p *Portfolio) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

type SocialLink struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PortfolioID uint      `gorm:"not null;index" json:"portfolio_id"`
	Label       string    `gorm:"type:varchar(50);not null" json:"label"`
	URL         string    `gorm:"type:varchar(255);not null" json:"url"`
	Position    int       `gorm:"default:0" json:"position"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PortfolioID uint      `gorm:"not null;index" json:"portfolio_id"`
	Title       string    `gorm:"type:varchar(150);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:varchar(255)" json:"image_url"`
	ProjectURL  string    `gorm:"type:varchar(255)" json:"project_url"`
	Position    int       `gorm:"default:0" json:"position"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Competence struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PortfolioID uint      `gorm:"not null;index" json:"portfolio_id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Level       string    `gorm:"type:varchar(50)" json:"level"`
	Position    int       `gorm:"default:0" json:"position"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Experience struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PortfolioID uint       `gorm:"not null;index" json:"portfolio_id"`
	Company     string     `gorm:"type:varchar(150);not null" json:"company"`
	Title       string     `gorm:"type:varchar(150)" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	StartDate   *time.Time `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	EndDate     *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	Position    int        `gorm:"default:0" json:"position"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
