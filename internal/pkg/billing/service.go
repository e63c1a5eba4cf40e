package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
	"github.com/foliotap/foliotap/internal/pkg/entitlements"
	"github.com/foliotap/foliotap/internal/pkg/paymentstatus"
)

// checkoutTTL bounds how long an initiated checkout stays confirmable.
const checkoutTTL = 48 * time.Hour

// Notifier delivers user-facing messages. Delivery is best-effort and
// fire-and-forget relative to any preceding persistence; implementations
// must not block on the actual send.
type Notifier interface {
	Send(to, subject, body string) error
}

// Service orchestrates checkout sessions, the payment ledger, invoices, the
// subscription history and the user activation gate.
type Service struct {
	repo        Repository
	notifier    Notifier
	frontendURL string
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, notifier Notifier, frontendURL string) *Service {
	return &Service{
		repo:        repo,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, notifier Notifier, frontendURL string) *Service {
	return NewService(NewRepository(db), notifier, frontendURL)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Register creates an account on the chosen plan. A free plan activates the
// account immediately and appends its subscription row right away; a paid plan
// leaves the account inactive and returns a pending checkout session instead.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	if existing, err := s.repo.GetUserByEmail(email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	planSlug := strings.ToLower(strings.TrimSpace(in.PlanSlug))
	if planSlug == "" {
		planSlug = "free"
	}
	plan, err := s.repo.GetPlanBySlug(planSlug)
	if err != nil {
		return nil, notFound(err)
	}

	user, err := models.CreateUser(name, email, in.Password)
	if err != nil {
		return nil, err
	}
	// Free accounts work immediately; paid accounts wait behind the
	// activation gate until an admin approves the payment.
	user.IsActive = plan.IsFree()
	if err := user.GenerateActivationToken(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	result := &RegisterResult{User: user, Plan: plan}
	if plan.IsFree() {
		planID := plan.ID
		if _, err := s.Subscribe(ctx, SubscribeInput{UserID: user.ID, PlanID: &planID}); err != nil {
			return nil, err
		}
		return result, nil
	}

	checkout, err := s.CreateCheckout(ctx, user.ID, plan.ID)
	if err != nil {
		return nil, err
	}
	result.Checkout = checkout
	return result, nil
}

// CreateCheckout initiates a purchase of planID for userID: order, payment
// and checkout session are created together, atomically. The returned token
// is the sole credential to read and confirm the session.
func (s *Service) CreateCheckout(ctx context.Context, userID, planID uint) (*CheckoutResult, error) {
	if userID == 0 || planID == 0 {
		return nil, fmt.Errorf("%w: user_id and plan_id are required", ErrValidation)
	}

	plan, err := s.repo.GetPlanByID(planID)
	if err != nil {
		return nil, notFound(err)
	}

	token, err := models.NewCheckoutToken()
	if err != nil {
		return nil, err
	}

	var result *CheckoutResult
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		order := &models.Order{
			UserID:      userID,
			OrderNumber: models.NewOrderNumber(),
			Status:      models.ORDER_STATUS_PENDING,
			TotalAmount: plan.Price,
			Currency:    plan.Currency,
		}
		if err := tx.CreateOrder(order); err != nil {
			return err
		}

		payment := &models.PaymentRecord{
			OrderID:   order.ID,
			Reference: models.NewPaymentReference(),
			Amount:    plan.Price,
			Currency:  plan.Currency,
			Status:    models.PAYMENT_STATUS_PENDING,
			MetadataJSON: paymentMetadata{
				PlanID:   plan.ID,
				PlanSlug: plan.Slug,
				Purpose:  "plan_upgrade",
			}.encode(),
		}
		if err := tx.CreatePayment(payment); err != nil {
			return err
		}

		expiresAt := time.Now().Add(checkoutTTL)
		session := &models.CheckoutSession{
			Token:     token,
			UserID:    userID,
			PlanID:    plan.ID,
			OrderID:   order.ID,
			PaymentID: payment.ID,
			Status:    models.CHECKOUT_STATUS_PENDING,
			ExpiresAt: &expiresAt,
			MetadataJSON: paymentMetadata{
				PlanID:   plan.ID,
				PlanSlug: plan.Slug,
				Purpose:  "plan_upgrade",
			}.encode(),
		}
		if err := tx.CreateCheckoutSession(session); err != nil {
			return err
		}

		result = &CheckoutResult{
			Token:       token,
			RedirectURL: fmt.Sprintf("%s/checkout/%s", s.frontendURL, token),
			OrderID:     order.ID,
			PaymentID:   payment.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetCheckout resolves a token to its session with plan, order and payment
// joined. Reading a session requires no further authentication; the token is
// unguessable and supports pre-login checkout flows.
func (s *Service) GetCheckout(ctx context.Context, token string) (*models.CheckoutSession, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is required", ErrValidation)
	}
	session, err := s.repo.GetCheckoutSessionByToken(token)
	if err != nil {
		return nil, notFound(err)
	}
	return session, nil
}

// ConfirmCheckout records the customer's payment declaration and marks the
// session confirmed (awaiting admin review). It deliberately does not drive
// the payment to success: admin approval is the authoritative success path.
func (s *Service) ConfirmCheckout(ctx context.Context, userID uint, token string, in ConfirmCheckoutInput) (*models.CheckoutSession, error) {
	session, err := s.GetCheckout(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	if session.Status == models.CHECKOUT_STATUS_CANCELLED {
		return nil, ErrCheckoutCancelled
	}
	if session.Status == models.CHECKOUT_STATUS_APPROVED {
		// Already past confirmation; nothing to redo.
		return session, nil
	}
	if session.IsExpired() {
		return nil, ErrCheckoutExpired
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		payment, err := tx.GetPaymentByID(session.PaymentID)
		if err != nil {
			return err
		}
		if ref := strings.TrimSpace(in.Reference); ref != "" {
			payment.Reference = ref
		}
		if method := strings.TrimSpace(in.Method); method != "" {
			payment.Method = method
		}
		if err := tx.SavePayment(payment); err != nil {
			return err
		}

		if err := session.AdvanceTo(models.CHECKOUT_STATUS_CONFIRMED); err != nil {
			return err
		}
		return tx.SaveCheckoutSession(session)
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(session.UserID, "Paiement en cours de validation",
		"Nous avons bien reçu votre déclaration de paiement. Votre compte sera activé après validation.")
	return session, nil
}

// UpdatePaymentStatus normalizes rawStatus, guards the transition and
// persists the display status. A transition to success or refunded mints the
// corresponding invoice exactly once; re-invoking with an unchanged status is
// an idempotent no-op. Notification failures are logged, never raised.
func (s *Service) UpdatePaymentStatus(ctx context.Context, paymentID uint, rawStatus, reason string) (*models.PaymentRecord, error) {
	payment, err := s.repo.GetPaymentByID(paymentID)
	if err != nil {
		return nil, notFound(err)
	}

	canonical := paymentstatus.Normalize(rawStatus)
	current := paymentstatus.FromDisplay(payment.Status)

	if err := paymentstatus.CheckTransition(current, canonical); err != nil {
		if errors.Is(err, paymentstatus.ErrSameStatus) {
			// Repeat call with the stored status: no new side effects.
			return payment, nil
		}
		return nil, fmt.Errorf("payment %d: %w (%s -> %s)", payment.ID, err, current, canonical)
	}

	var invoice *models.Invoice
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		payment.Status = paymentstatus.Display(canonical)

		switch canonical {
		case paymentstatus.StatusSuccess:
			if payment.InvoiceID == nil {
				invoice, err = s.mintInvoice(tx, payment, payment.Amount, models.INVOICE_STATUS_PAID)
				if err != nil {
					return err
				}
				payment.InvoiceID = &invoice.ID
			}
		case paymentstatus.StatusRefunded:
			invoice, err = s.mintInvoice(tx, payment, -payment.Amount, models.INVOICE_STATUS_REFUNDED)
			if err != nil {
				return err
			}
			payment.InvoiceID = &invoice.ID
		}

		return tx.SavePayment(payment)
	})
	if err != nil {
		return nil, err
	}

	switch canonical {
	case paymentstatus.StatusSuccess:
		s.notifyPaymentOwner(payment, "Reçu de paiement",
			fmt.Sprintf("Votre paiement de %s a bien été reçu. Référence: %s.",
				formatAmount(payment.Amount, payment.Currency), payment.Reference))
	case paymentstatus.StatusRefunded:
		body := fmt.Sprintf("Votre paiement de %s a été remboursé.",
			formatAmount(payment.Amount, payment.Currency))
		if reason != "" {
			body += " Motif: " + reason + "."
		}
		s.notifyPaymentOwner(payment, "Remboursement effectué", body)
	}

	return payment, nil
}

// mintInvoice materializes the billing document for a payment and links it
// back. The owning user comes from the payment's order.
func (s *Service) mintInvoice(tx Repository, payment *models.PaymentRecord, amount int64, status string) (*models.Invoice, error) {
	if payment.Order == nil {
		return nil, fmt.Errorf("payment %d has no order attached", payment.ID)
	}

	reference := payment.Reference
	if reference == "" {
		reference = models.NewInvoiceReference()
	}

	meta := decodePaymentMetadata(payment.MetadataJSON)
	var planID *uint
	if meta.PlanID != 0 {
		id := meta.PlanID
		planID = &id
	}

	invoice := &models.Invoice{
		UserID:    payment.Order.UserID,
		PlanID:    planID,
		Amount:    amount,
		Currency:  payment.Currency,
		Reference: reference,
		Status:    status,
	}
	if err := tx.CreateInvoice(invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// Subscribe appends one row to the subscription history. Rows are never
// updated in place; the newest row becomes the user's current plan.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*models.Subscription, error) {
	if in.UserID == 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	status := in.Status
	if status == "" {
		status = models.SUBSCRIPTION_STATUS_ACTIVE
	}
	start := in.StartDate
	if start == nil {
		now := time.Now()
		start = &now
	}

	sub := &models.Subscription{
		UserID:           in.UserID,
		PlanID:           in.PlanID,
		Status:           status,
		Amount:           in.Amount,
		StartDate:        start,
		EndDate:          in.EndDate,
		PaymentReference: in.PaymentReference,
	}
	if len(in.Metadata) > 0 {
		sub.MetadataJSON = encodeMetadata(in.Metadata)
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ResolveCurrentSubscription returns the most recently created history row
// for the user, or nil when none exists. A cancelled row can still resolve as
// current when it is the newest; that is the documented ordering contract.
func (s *Service) ResolveCurrentSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	subs, err := s.repo.ListSubscriptionsByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

// CurrentTier resolves the user's quota set from the subscription history.
func (s *Service) CurrentTier(ctx context.Context, userID uint) (entitlements.Tier, error) {
	sub, err := s.ResolveCurrentSubscription(ctx, userID)
	if err != nil {
		return entitlements.Tier{}, err
	}
	return entitlements.TierForSubscription(sub), nil
}

// CancelSubscription flags a history row cancelled. The row stays in place
// and keeps participating in current-plan resolution.
func (s *Service) CancelSubscription(ctx context.Context, userID, subscriptionID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByID(subscriptionID)
	if err != nil {
		return nil, notFound(err)
	}
	if sub.UserID != userID {
		return nil, ErrForbidden
	}
	if sub.Status == models.SUBSCRIPTION_STATUS_CANCELLED {
		return sub, nil
	}
	sub.Status = models.SUBSCRIPTION_STATUS_CANCELLED
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SetUserActive flips the activation gate directly (admin manual toggle).
func (s *Service) SetUserActive(ctx context.Context, userID uint, active bool) error {
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return notFound(err)
	}
	user.IsActive = active
	return s.repo.SaveUser(user)
}

// ApproveCheckout is the human-triggered transition that validates a paid
// signup or upgrade: payment forced to success (minting the invoice),
// subscription row appended, activation gate flipped on, order advanced to
// processing. Re-approving an already-approved session is a no-op. The
// persisted steps are attempted independently; a later failure is logged and
// reported but never rolls back an earlier step.
func (s *Service) ApproveCheckout(ctx context.Context, token string, in ApproveCheckoutInput) (*models.CheckoutSession, error) {
	session, err := s.GetCheckout(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Status == models.CHECKOUT_STATUS_APPROVED {
		return session, nil
	}
	if session.Status == models.CHECKOUT_STATUS_CANCELLED {
		return nil, ErrCheckoutCancelled
	}

	payment, err := s.repo.GetPaymentByID(session.PaymentID)
	if err != nil {
		return nil, notFound(err)
	}
	if ref := strings.TrimSpace(in.Reference); ref != "" {
		payment.Reference = ref
	}
	if method := strings.TrimSpace(in.Method); method != "" {
		payment.Method = method
	}
	if in.ReceiptURL != "" {
		payment.ReceiptURL = in.ReceiptURL
	}
	if err := s.repo.SavePayment(payment); err != nil {
		return nil, err
	}

	var firstErr error
	fail := func(step string, err error) {
		log.Errorf("[Billing] approve checkout %d: %s failed: %v", session.ID, step, err)
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", step, err)
		}
	}

	if updated, err := s.UpdatePaymentStatus(ctx, session.PaymentID, "success", ""); err != nil {
		fail("payment update", err)
	} else {
		payment = updated
	}

	planID := session.PlanID
	if _, err := s.Subscribe(ctx, SubscribeInput{
		UserID:           session.UserID,
		PlanID:           &planID,
		Amount:           session.Order.TotalAmount,
		PaymentReference: payment.Reference,
	}); err != nil {
		fail("subscription append", err)
	}

	if err := s.SetUserActive(ctx, session.UserID, true); err != nil {
		fail("user activation", err)
	}

	session.Order.Status = models.ORDER_STATUS_PROCESSING
	if err := s.repo.SaveOrder(session.Order); err != nil {
		fail("order update", err)
	}

	if err := session.AdvanceTo(models.CHECKOUT_STATUS_APPROVED); err != nil {
		fail("session advance", err)
	} else if err := s.repo.SaveCheckoutSession(session); err != nil {
		fail("session save", err)
	}

	if firstErr != nil {
		return session, firstErr
	}

	s.notifyUser(session.UserID, "Votre abonnement est actif",
		"Votre paiement a été validé et votre compte est maintenant actif.")
	return session, nil
}

// ConfirmPaymentAndValidate is the admin shortcut on a bare payment: drive
// the status, and on success append the subscription row for the plan
// snapshotted in the payment metadata and activate the order's owner.
func (s *Service) ConfirmPaymentAndValidate(ctx context.Context, paymentID uint, rawStatus string) (*models.PaymentRecord, error) {
	payment, err := s.UpdatePaymentStatus(ctx, paymentID, rawStatus, "")
	if err != nil {
		return nil, err
	}
	if paymentstatus.Normalize(rawStatus) != paymentstatus.StatusSuccess {
		return payment, nil
	}
	if payment.Order == nil {
		return payment, nil
	}

	meta := decodePaymentMetadata(payment.MetadataJSON)
	var planID *uint
	if meta.PlanID != 0 {
		id := meta.PlanID
		planID = &id
	}
	if _, err := s.Subscribe(ctx, SubscribeInput{
		UserID:           payment.Order.UserID,
		PlanID:           planID,
		Amount:           payment.Amount,
		PaymentReference: payment.Reference,
	}); err != nil {
		log.Errorf("[Billing] confirm payment %d: subscription append failed: %v", payment.ID, err)
	}
	if err := s.SetUserActive(ctx, payment.Order.UserID, true); err != nil {
		log.Errorf("[Billing] confirm payment %d: user activation failed: %v", payment.ID, err)
	}
	payment.Order.Status = models.ORDER_STATUS_PROCESSING
	if err := s.repo.SaveOrder(payment.Order); err != nil {
		log.Errorf("[Billing] confirm payment %d: order update failed: %v", payment.ID, err)
	}

	return payment, nil
}

// HandleWebhookEvent persists the provider event idempotently and, for a
// first delivery, drives the referenced payment. Replays return created=false
// and produce no side effects.
func (s *Service) HandleWebhookEvent(ctx context.Context, in WebhookInput) (bool, *models.PaymentRecord, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, fmt.Errorf("%w: provider is required", ErrValidation)
	}

	event := &models.PaymentEvent{
		Provider:        provider,
		ProviderEventID: strings.TrimSpace(in.ProviderEventID),
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	created, stored, err := s.repo.CreatePaymentEventIfNotExists(event)
	if err != nil {
		return false, nil, err
	}
	if !created {
		return false, nil, nil
	}

	payment, err := s.UpdatePaymentStatus(ctx, in.PaymentID, in.RawStatus, in.Reason)
	procErr := ""
	if err != nil {
		procErr = err.Error()
	}
	if markErr := s.repo.MarkPaymentEventProcessed(stored.ID, procErr); markErr != nil {
		log.Errorf("[Billing] webhook event %d: mark processed failed: %v", stored.ID, markErr)
	}
	if err != nil {
		return true, nil, err
	}
	return true, payment, nil
}

// notifyPaymentOwner emails the owning user of a payment, best-effort.
func (s *Service) notifyPaymentOwner(payment *models.PaymentRecord, subject, body string) {
	if payment.Order == nil || payment.Order.User == nil {
		return
	}
	s.notify(payment.Order.User.Email, subject, body)
}

// notifyUser looks the user up and emails them, best-effort.
func (s *Service) notifyUser(userID uint, subject, body string) {
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		log.Errorf("[Billing] notify: user %d lookup failed: %v", userID, err)
		return
	}
	s.notify(user.Email, subject, body)
}

func (s *Service) notify(to, subject, body string) {
	if s.notifier == nil || to == "" {
		return
	}
	if err := s.notifier.Send(to, subject, body); err != nil {
		log.Errorf("[Billing] notification to %s failed: %v", to, err)
	}
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}

func encodeMetadata(m map[string]any) string {
	meta := paymentMetadata{}
	if v, ok := m["plan_id"].(uint); ok {
		meta.PlanID = v
	}
	if v, ok := m["plan_slug"].(string); ok {
		meta.PlanSlug = v
	}
	if v, ok := m["purpose"].(string); ok {
		meta.Purpose = v
	}
	return meta.encode()
}
