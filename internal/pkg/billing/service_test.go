package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	nextID   uint
	clock    time.Time
	users    map[uint]*models.User
	plans    map[uint]*models.Plan
	orders   map[uint]*models.Order
	payments map[uint]*models.PaymentRecord
	invoices map[uint]*models.Invoice
	subs     map[uint]*models.Subscription
	sessions map[string]*models.CheckoutSession
	events   map[string]*models.PaymentEvent
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[uint]*models.User{},
		plans:    map[uint]*models.Plan{},
		orders:   map[uint]*models.Order{},
		payments: map[uint]*models.PaymentRecord{},
		invoices: map[uint]*models.Invoice{},
		subs:     map[uint]*models.Subscription{},
		sessions: map[string]*models.CheckoutSession{},
		events:   map[string]*models.PaymentEvent{},
	}
}

func (f *fakeRepository) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) GetPlanByID(id uint) (*models.Plan, error) {
	if p, ok := f.plans[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPlanBySlug(slug string) (*models.Plan, error) {
	for _, p := range f.plans {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetUserByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateUser(user *models.User) error {
	user.ID = f.id()
	user.CreatedAt = f.tick()
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepository) SaveUser(user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepository) CreateOrder(order *models.Order) error {
	order.ID = f.id()
	order.CreatedAt = f.tick()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeRepository) SaveOrder(order *models.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeRepository) CreatePayment(payment *models.PaymentRecord) error {
	payment.ID = f.id()
	payment.CreatedAt = f.tick()
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakeRepository) GetPaymentByID(id uint) (*models.PaymentRecord, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if order, ok := f.orders[p.OrderID]; ok {
		p.Order = order
		if user, ok := f.users[order.UserID]; ok {
			order.User = user
		}
	}
	return p, nil
}

func (f *fakeRepository) SavePayment(payment *models.PaymentRecord) error {
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakeRepository) CreateInvoice(invoice *models.Invoice) error {
	invoice.ID = f.id()
	invoice.CreatedAt = f.tick()
	f.invoices[invoice.ID] = invoice
	return nil
}

func (f *fakeRepository) CreateSubscription(sub *models.Subscription) error {
	sub.ID = f.id()
	sub.CreatedAt = f.tick()
	if sub.PlanID != nil {
		sub.Plan = f.plans[*sub.PlanID]
	}
	f.subs[sub.ID] = sub
	return nil
}

func (f *fakeRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	if s, ok := f.subs[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveSubscription(sub *models.Subscription) error {
	f.subs[sub.ID] = sub
	return nil
}

func (f *fakeRepository) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	for _, s := range f.subs {
		if s.UserID == userID {
			subs = append(subs, *s)
		}
	}
	// created_at DESC, id DESC
	for i := 0; i < len(subs); i++ {
		for j := i + 1; j < len(subs); j++ {
			a, b := subs[i], subs[j]
			if b.CreatedAt.After(a.CreatedAt) || (b.CreatedAt.Equal(a.CreatedAt) && b.ID > a.ID) {
				subs[i], subs[j] = subs[j], subs[i]
			}
		}
	}
	return subs, nil
}

func (f *fakeRepository) CreateCheckoutSession(session *models.CheckoutSession) error {
	session.ID = f.id()
	session.CreatedAt = f.tick()
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeRepository) GetCheckoutSessionByToken(token string) (*models.CheckoutSession, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.Plan = f.plans[s.PlanID]
	s.Order = f.orders[s.OrderID]
	s.Payment = f.payments[s.PaymentID]
	return s, nil
}

func (f *fakeRepository) SaveCheckoutSession(session *models.CheckoutSession) error {
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeRepository) CreatePaymentEventIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error) {
	key := event.Provider + "|" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		return false, existing, nil
	}
	event.ID = f.id()
	event.CreatedAt = f.tick()
	f.events[key] = event
	return true, event, nil
}

func (f *fakeRepository) MarkPaymentEventProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			now := f.tick()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) Send(to, subject, body string) error {
	n.sent = append(n.sent, fmt.Sprintf("%s: %s", to, subject))
	return nil
}

func seedUserAndPlan(repo *fakeRepository, price int64) (*models.User, *models.Plan) {
	user := &models.User{ID: repo.id(), Name: "Awa Diop", Email: "awa@example.com"}
	repo.users[user.ID] = user
	plan := &models.Plan{ID: repo.id(), Slug: "starter", Name: "Starter", Price: price, Currency: "EUR"}
	repo.plans[plan.ID] = plan
	return user, plan
}

func newTestService(repo *fakeRepository) (*Service, *fakeNotifier) {
	notifier := &fakeNotifier{}
	return NewService(repo, notifier, "https://app.foliotap.test/"), notifier
}

func TestCreateCheckout(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 990)
	svc, _ := newTestService(repo)

	result, err := svc.CreateCheckout(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, "https://app.foliotap.test/checkout/"+result.Token, result.RedirectURL)

	session, err := svc.GetCheckout(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.CHECKOUT_STATUS_PENDING, session.Status)
	assert.Equal(t, user.ID, session.UserID)
	require.NotNil(t, session.Order)
	assert.Equal(t, models.ORDER_STATUS_PENDING, session.Order.Status)
	assert.Equal(t, int64(990), session.Order.TotalAmount)
	require.NotNil(t, session.Payment)
	assert.Equal(t, models.PAYMENT_STATUS_PENDING, session.Payment.Status)
	assert.Contains(t, session.Payment.MetadataJSON, "plan_upgrade")
}

func TestCreateCheckoutUnknownPlan(t *testing.T) {
	repo := newFakeRepository()
	user, _ := seedUserAndPlan(repo, 990)
	svc, _ := newTestService(repo)

	_, err := svc.CreateCheckout(context.Background(), user.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCheckoutUnknownToken(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)

	_, err := svc.GetCheckout(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmCheckout(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 990)
	svc, _ := newTestService(repo)

	result, err := svc.CreateCheckout(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	t.Run("foreign user is rejected", func(t *testing.T) {
		_, err := svc.ConfirmCheckout(context.Background(), user.ID+100, result.Token, ConfirmCheckoutInput{})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("owner confirms", func(t *testing.T) {
		session, err := svc.ConfirmCheckout(context.Background(), user.ID, result.Token, ConfirmCheckoutInput{
			Reference: "WAVE-123",
			Method:    "wave",
		})
		require.NoError(t, err)
		assert.Equal(t, models.CHECKOUT_STATUS_CONFIRMED, session.Status)

		payment := repo.payments[result.PaymentID]
		assert.Equal(t, "WAVE-123", payment.Reference)
		assert.Equal(t, "wave", payment.Method)
		// Self-service confirmation never drives the payment to success.
		assert.Equal(t, models.PAYMENT_STATUS_PENDING, payment.Status)
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		session := repo.sessions[result.Token]
		past := time.Now().Add(-time.Hour)
		session.ExpiresAt = &past
		session.Status = models.CHECKOUT_STATUS_PENDING

		_, err := svc.ConfirmCheckout(context.Background(), user.ID, result.Token, ConfirmCheckoutInput{})
		assert.ErrorIs(t, err, ErrCheckoutExpired)
	})
}

func TestUpdatePaymentStatusMintsInvoiceOnce(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 1990)
	svc, notifier := newTestService(repo)

	result, err := svc.CreateCheckout(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	payment, err := svc.UpdatePaymentStatus(context.Background(), result.PaymentID, "Confirmé", "")
	require.NoError(t, err)
	assert.Equal(t, models.PAYMENT_STATUS_SUCCESS, payment.Status)
	require.NotNil(t, payment.InvoiceID)
	assert.Len(t, repo.invoices, 1)

	invoice := repo.invoices[*payment.InvoiceID]
	assert.Equal(t, user.ID, invoice.UserID)
	assert.Equal(t, int64(1990), invoice.Amount)
	assert.Equal(t, models.INVOICE_STATUS_PAID, invoice.Status)
	require.NotNil(t, invoice.PlanID)
	assert.Equal(t, plan.ID, *invoice.PlanID)

	// Second success call is an idempotent no-op: still exactly one invoice.
	payment, err = svc.UpdatePaymentStatus(context.Background(), result.PaymentID, "success", "")
	require.NoError(t, err)
	assert.Len(t, repo.invoices, 1)
	assert.Equal(t, models.PAYMENT_STATUS_SUCCESS, payment.Status)

	assert.NotEmpty(t, notifier.sent)
}

func TestUpdatePaymentStatusRefund(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 1990)
	svc, notifier := newTestService(repo)

	result, err := svc.CreateCheckout(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	_, err = svc.UpdatePaymentStatus(context.Background(), result.PaymentID, "paid", "")
	require.NoError(t, err)

	payment, err := svc.UpdatePaymentStatus(context.Background(), result.PaymentID, "remboursement", "commande annulée")
	require.NoError(t, err)
	assert.Equal(t, models.PAYMENT_STATUS_REFUNDED, payment.Status)
	require.NotNil(t, payment.InvoiceID)

	refund := repo.invoices[*payment.InvoiceID]
	assert.Equal(t, int64(-1990), refund.Amount)
	assert.Equal(t, models.INVOICE_STATUS_REFUNDED, refund.Status)
	assert.Len(t, repo.invoices, 2)

	assert.Contains(t, notifier.sent[len(notifier.sent)-1], "Remboursement")
}

func TestUpdatePaymentStatusRejectsBackwardTransition(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 1990)
	svc, _ := newTestService(repo)

	result, err := svc.CreateCheckout(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	_, err = svc.UpdatePaymentStatus(context.Background(), result.PaymentID, "success", "")
	require.NoError(t, err)

	_, err = svc.UpdatePaymentStatus(context.Background(), result.PaymentID, "failed", "")
	require.Error(t, err)
}

func TestUpdatePaymentStatusUnknownTokenParksPayment(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 1990)
	svc, _ := newTestService(repo)

	result, err := svc.CreateCheckout(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	// "banana" normalizes to pending; pending -> pending is a no-op.
	payment, err := svc.UpdatePaymentStatus(context.Background(), result.PaymentID, "banana", "")
	require.NoError(t, err)
	assert.Equal(t, models.PAYMENT_STATUS_PENDING, payment.Status)
	assert.Nil(t, payment.InvoiceID)
	assert.Empty(t, repo.invoices)
}

func TestApproveCheckoutIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 4990)
	user.IsActive = false
	svc, _ := newTestService(repo)

	result, err := svc.CreateCheckout(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	session, err := svc.ApproveCheckout(context.Background(), result.Token, ApproveCheckoutInput{
		Reference:  "OM-777",
		Method:     "orange_money",
		ReceiptURL: "https://cdn.foliotap.test/receipts/om-777.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CHECKOUT_STATUS_APPROVED, session.Status)

	assert.Len(t, repo.invoices, 1)
	assert.Len(t, repo.subs, 1)
	assert.True(t, repo.users[user.ID].IsActive)
	assert.Equal(t, models.ORDER_STATUS_PROCESSING, repo.orders[result.OrderID].Status)

	payment := repo.payments[result.PaymentID]
	assert.Equal(t, models.PAYMENT_STATUS_SUCCESS, payment.Status)
	assert.Equal(t, "OM-777", payment.Reference)
	assert.Equal(t, "https://cdn.foliotap.test/receipts/om-777.jpg", payment.ReceiptURL)

	// Second approval: no second invoice, no second subscription row.
	session, err = svc.ApproveCheckout(context.Background(), result.Token, ApproveCheckoutInput{})
	require.NoError(t, err)
	assert.Equal(t, models.CHECKOUT_STATUS_APPROVED, session.Status)
	assert.Len(t, repo.invoices, 1)
	assert.Len(t, repo.subs, 1)
}

func TestSubscriptionCurrentResolution(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 990)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	current, err := svc.ResolveCurrentSubscription(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	tier, err := svc.CurrentTier(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Free", tier.Name)

	// Older row with a far-future end date.
	future := time.Now().Add(365 * 24 * time.Hour)
	first, err := svc.Subscribe(ctx, SubscribeInput{UserID: user.ID, PlanID: &plan.ID, EndDate: &future})
	require.NoError(t, err)

	pro := &models.Plan{ID: repo.id(), Slug: "professional", Name: "Professional", Price: 4990, Currency: "EUR"}
	repo.plans[pro.ID] = pro
	second, err := svc.Subscribe(ctx, SubscribeInput{UserID: user.ID, PlanID: &pro.ID})
	require.NoError(t, err)

	// Most recently created row wins, end dates are irrelevant.
	current, err = svc.ResolveCurrentSubscription(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)

	tier, err = svc.CurrentTier(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Professional", tier.Name)

	// A cancelled newest row still resolves as current.
	_, err = svc.CancelSubscription(ctx, user.ID, second.ID)
	require.NoError(t, err)
	current, err = svc.ResolveCurrentSubscription(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, models.SUBSCRIPTION_STATUS_CANCELLED, current.Status)

	_ = first
}

func TestCancelSubscriptionOwnership(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 990)
	svc, _ := newTestService(repo)

	sub, err := svc.Subscribe(context.Background(), SubscribeInput{UserID: user.ID, PlanID: &plan.ID})
	require.NoError(t, err)

	_, err = svc.CancelSubscription(context.Background(), user.ID+1, sub.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandleWebhookEventIdempotence(t *testing.T) {
	repo := newFakeRepository()
	user, plan := seedUserAndPlan(repo, 2990)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	result, err := svc.CreateCheckout(ctx, user.ID, plan.ID)
	require.NoError(t, err)

	in := WebhookInput{
		Provider:        "wave",
		ProviderEventID: "evt_1",
		EventType:       "payment.updated",
		PayloadJSON:     `{"status":"succeeded"}`,
		SignatureValid:  true,
		PaymentID:       result.PaymentID,
		RawStatus:       "succeeded",
	}

	created, payment, err := svc.HandleWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, payment)
	assert.Equal(t, models.PAYMENT_STATUS_SUCCESS, payment.Status)
	assert.Len(t, repo.invoices, 1)

	// Replay of the same event is swallowed.
	created, payment, err = svc.HandleWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, payment)
	assert.Len(t, repo.invoices, 1)
}

func TestRegisterFreePlan(t *testing.T) {
	repo := newFakeRepository()
	free := &models.Plan{ID: repo.id(), Slug: "free", Name: "Free", Price: 0, Currency: "EUR"}
	repo.plans[free.ID] = free
	svc, _ := newTestService(repo)

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Awa Diop",
		Email:    "awa@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	// Active right away, with the ledger row already appended.
	assert.True(t, result.User.IsActive)
	assert.Nil(t, result.Checkout)
	require.Len(t, repo.subs, 1)
	for _, sub := range repo.subs {
		assert.Equal(t, result.User.ID, sub.UserID)
		require.NotNil(t, sub.PlanID)
		assert.Equal(t, free.ID, *sub.PlanID)
	}
	assert.Empty(t, repo.orders)
	assert.Empty(t, repo.sessions)
}

func TestRegisterPaidPlan(t *testing.T) {
	repo := newFakeRepository()
	starter := &models.Plan{ID: repo.id(), Slug: "starter", Name: "Starter", Price: 990, Currency: "EUR"}
	repo.plans[starter.ID] = starter
	svc, _ := newTestService(repo)

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Moussa Ba",
		Email:    "moussa@example.com",
		Password: "s3cret-pass",
		PlanSlug: "starter",
	})
	require.NoError(t, err)

	// Inactive until an admin validates the payment; no ledger row yet.
	assert.False(t, result.User.IsActive)
	assert.Empty(t, repo.subs)

	require.NotNil(t, result.Checkout)
	session := repo.sessions[result.Checkout.Token]
	require.NotNil(t, session)
	assert.Equal(t, models.CHECKOUT_STATUS_PENDING, session.Status)
	assert.Equal(t, models.ORDER_STATUS_PENDING, repo.orders[result.Checkout.OrderID].Status)
	assert.Equal(t, models.PAYMENT_STATUS_PENDING, repo.payments[result.Checkout.PaymentID].Status)
}

func TestRegisterEmailTaken(t *testing.T) {
	repo := newFakeRepository()
	free := &models.Plan{ID: repo.id(), Slug: "free", Name: "Free", Price: 0, Currency: "EUR"}
	repo.plans[free.ID] = free
	svc, _ := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "dup@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		Name: "B", Email: "Dup@Example.com", Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUnknownPlan(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@example.com", Password: "s3cret-pass", PlanSlug: "platine",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetUserActive(t *testing.T) {
	repo := newFakeRepository()
	user, _ := seedUserAndPlan(repo, 0)
	svc, _ := newTestService(repo)

	require.NoError(t, svc.SetUserActive(context.Background(), user.ID, true))
	assert.True(t, repo.users[user.ID].IsActive)
	require.NoError(t, svc.SetUserActive(context.Background(), user.ID, false))
	assert.False(t, repo.users[user.ID].IsActive)

	assert.ErrorIs(t, svc.SetUserActive(context.Background(), 9999, true), ErrNotFound)
}
