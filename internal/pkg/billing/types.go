package billing

import (
	"encoding/json"
	"time"

	"github.com/foliotap/foliotap/app/models"
)

// CheckoutResult is returned by CreateCheckout; RedirectURL points the client
// at the hosted checkout page for the opaque token.
type CheckoutResult struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	OrderID     uint   `json:"order_id"`
	PaymentID   uint   `json:"payment_id"`
}

// RegisterInput carries a signup request. PlanSlug defaults to "free".
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	PlanSlug string
}

// RegisterResult is the outcome of a signup. Checkout is nil for free plans;
// paid plans get a pending checkout session the admin must later approve.
type RegisterResult struct {
	User     *models.User
	Plan     *models.Plan
	Checkout *CheckoutResult
}

// ConfirmCheckoutInput carries the self-service payment declaration.
type ConfirmCheckoutInput struct {
	Reference string
	Method    string
}

// ApproveCheckoutInput carries the admin approval details.
type ApproveCheckoutInput struct {
	Reference  string
	Method     string
	ReceiptURL string
}

// SubscribeInput appends one row to the subscription history.
type SubscribeInput struct {
	UserID           uint
	PlanID           *uint
	Status           string
	Amount           int64
	StartDate        *time.Time
	EndDate          *time.Time
	PaymentReference string
	Metadata         map[string]any
}

// WebhookInput is the normalized shape of an incoming provider event.
type WebhookInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
	PaymentID       uint
	RawStatus       string
	Reason          string
}

// paymentMetadata is the free-form snapshot stored on a PaymentRecord at
// checkout creation time.
type paymentMetadata struct {
	PlanID   uint   `json:"plan_id,omitempty"`
	PlanSlug string `json:"plan_slug,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

func (m paymentMetadata) encode() string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodePaymentMetadata(raw string) paymentMetadata {
	var m paymentMetadata
	if raw == "" {
		return m
	}
	_ = json.Unmarshal([]byte(raw), &m)
	return m
}
