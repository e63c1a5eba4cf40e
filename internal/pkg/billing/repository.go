package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foliotap/foliotap/app/models"
)

// Repository provides the DB operations used by the billing service. All
// state the service mutates goes through this interface so transitions can be
// tested against a fake.
type Repository interface {
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetPlanByID(id uint) (*models.Plan, error)
	GetPlanBySlug(slug string) (*models.Plan, error)

	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	CreateUser(user *models.User) error
	SaveUser(user *models.User) error

	CreateOrder(order *models.Order) error
	SaveOrder(order *models.Order) error

	CreatePayment(payment *models.PaymentRecord) error
	GetPaymentByID(id uint) (*models.PaymentRecord, error)
	SavePayment(payment *models.PaymentRecord) error

	CreateInvoice(invoice *models.Invoice) error

	CreateSubscription(sub *models.Subscription) error
	GetSubscriptionByID(id uint) (*models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error
	ListSubscriptionsByUser(userID uint) ([]models.Subscription, error)

	CreateCheckoutSession(session *models.CheckoutSession) error
	GetCheckoutSessionByToken(token string) (*models.CheckoutSession, error)
	SaveCheckoutSession(session *models.CheckoutSession) error

	CreatePaymentEventIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error)
	MarkPaymentEventProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetPlanByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) GetPlanBySlug(slug string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Where("slug = ?", slug).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *gormRepository) SaveUser(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *gormRepository) CreateOrder(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *gormRepository) SaveOrder(order *models.Order) error {
	return r.db.Save(order).Error
}

func (r *gormRepository) CreatePayment(payment *models.PaymentRecord) error {
	return r.db.Create(payment).Error
}

func (r *gormRepository) GetPaymentByID(id uint) (*models.PaymentRecord, error) {
	var payment models.PaymentRecord
	err := r.db.Preload("Order").Preload("Order.User").First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) SavePayment(payment *models.PaymentRecord) error {
	return r.db.Save(payment).Error
}

func (r *gormRepository) CreateInvoice(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Preload("Plan").First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// ListSubscriptionsByUser returns the append-only history newest-first. The
// ordering is the current-plan resolution contract: most recently created row
// wins, regardless of start/end dates.
func (r *gormRepository) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) CreateCheckoutSession(session *models.CheckoutSession) error {
	return r.db.Create(session).Error
}

func (r *gormRepository) GetCheckoutSessionByToken(token string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.Preload("Plan").Preload("Order").Preload("Payment").
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *gormRepository) SaveCheckoutSession(session *models.CheckoutSession) error {
	return r.db.Save(session).Error
}

func (r *gormRepository) CreatePaymentEventIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkPaymentEventProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentEvent{}).Where("id = ?", id).Updates(updates).Error
}
