package repository

import (
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// PlanRepository defines the interface for plan catalog operations
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	GetBySlug(slug string) (*models.Plan, error)
	ListPublic() ([]models.Plan, error)
	List() ([]models.Plan, error)
	Update(plan *models.Plan) error
}

// OrderRepository defines the interface for order operations
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByOrderNumber(number string) (*models.Order, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Order, error)
	List(offset, limit int) ([]models.Order, error)
	Count() (int64, error)
	UpdateStatus(id uint, status string) error
}

// PaymentRepository defines the interface for reading payment records
type PaymentRepository interface {
	GetByID(id uint) (*models.PaymentRecord, error)
	GetByOrderID(orderID uint) ([]models.PaymentRecord, error)
	ListByStatus(status string, offset, limit int) ([]models.PaymentRecord, error)
}

// InvoiceRepository defines the interface for invoice reads and aggregates
type InvoiceRepository interface {
	GetByID(id uint) (*models.Invoice, error)
	GetByUserID(userID uint) ([]models.Invoice, error)
	List(offset, limit int) ([]models.Invoice, error)
	Count() (int64, error)
	SumAmountByStatus(status string) (int64, error)
}

// SubscriptionRepository defines the interface for the append-only
// subscription history. There is no update or delete on purpose.
type SubscriptionRepository interface {
	GetByUserID(userID uint) ([]models.Subscription, error)
	CurrentByUserID(userID uint) (*models.Subscription, error)
	Count() (int64, error)
}

// CheckoutSessionRepository defines the interface for checkout session reads
type CheckoutSessionRepository interface {
	GetByToken(token string) (*models.CheckoutSession, error)
	ListByStatus(status string, offset, limit int) ([]models.CheckoutSession, error)
}

// PortfolioRepository defines the interface for portfolio reads and deletes.
// Creates and updates go through the entitlement-enforcing service instead.
type PortfolioRepository interface {
	GetByID(id uint) (*models.Portfolio, error)
	GetBySlug(slug string) (*models.Portfolio, error)
	GetByUserID(userID uint) ([]models.Portfolio, error)
	CountByUserID(userID uint) (int64, error)
	Delete(id uint) error
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User            UserRepository
	Plan            PlanRepository
	Order           OrderRepository
	Payment         PaymentRepository
	Invoice         InvoiceRepository
	Subscription    SubscriptionRepository
	CheckoutSession CheckoutSessionRepository
	Portfolio       PortfolioRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Plan:            NewPlanRepository(db),
		Order:           NewOrderRepository(db),
		Payment:         NewPaymentRepository(db),
		Invoice:         NewInvoiceRepository(db),
		Subscription:    NewSubscriptionRepository(db),
		CheckoutSession: NewCheckoutSessionRepository(db),
		Portfolio:       NewPortfolioRepository(db),
	}
}
