// Package paymentstatus centralizes the payment status vocabulary. Callers
// may send any of the accepted raw synonyms (English or French business
// terms, provider terms, with or without diacritics); everything normalizes
// to one canonical status before any side effect fires. The stored form on
// PaymentRecord is the French display status.
package paymentstatus

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/foliotap/foliotap/app/models"
)

// Status is the canonical, implementation-internal payment state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

var (
	// ErrSameStatus signals an idempotent no-op transition.
	ErrSameStatus = errors.New("payment already has this status")
	// ErrInvalidTransition signals a transition the state machine rejects.
	ErrInvalidTransition = errors.New("invalid payment status transition")
)

// successSet and refundedSet hold the accepted raw synonyms after folding
// (lower-case, diacritics stripped).
var successSet = map[string]struct{}{
	"confirmed": {}, "paid": {}, "success": {}, "succeeded": {}, "completed": {},
	"confirme": {}, "paye": {}, "payee": {}, "reussi": {}, "reussie": {},
}

var refundedSet = map[string]struct{}{
	"refunded": {}, "rembourse": {}, "remboursement": {},
	"remboursee": {}, "remboursees": {}, "rembourses": {},
}

var pendingSet = map[string]struct{}{
	"pending": {}, "en_attente": {}, "en attente": {}, "attente": {},
}

var failedSet = map[string]struct{}{
	"failed": {}, "echoue": {}, "echouee": {}, "echec": {}, "error": {},
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lower-cases, trims and strips diacritics from a raw status token.
func fold(raw string) string {
	stripped, _, err := transform.String(foldTransformer, raw)
	if err != nil {
		stripped = raw
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}

// Normalize maps an arbitrary raw status token to its canonical status.
// Unrecognized tokens map to pending; integration partners sending unknown
// vocabulary therefore park the payment instead of failing the call.
func Normalize(raw string) Status {
	token := fold(raw)
	if _, ok := successSet[token]; ok {
		return StatusSuccess
	}
	if _, ok := refundedSet[token]; ok {
		return StatusRefunded
	}
	if _, ok := failedSet[token]; ok {
		return StatusFailed
	}
	if _, ok := pendingSet[token]; ok {
		return StatusPending
	}
	return StatusPending
}

// Display returns the stored (French) representation of a canonical status.
func Display(s Status) string {
	switch s {
	case StatusSuccess:
		return models.PAYMENT_STATUS_SUCCESS
	case StatusFailed:
		return models.PAYMENT_STATUS_FAILED
	case StatusRefunded:
		return models.PAYMENT_STATUS_REFUNDED
	default:
		return models.PAYMENT_STATUS_PENDING
	}
}

// FromDisplay maps a stored display status back to its canonical status.
func FromDisplay(display string) Status {
	switch display {
	case models.PAYMENT_STATUS_SUCCESS:
		return StatusSuccess
	case models.PAYMENT_STATUS_FAILED:
		return StatusFailed
	case models.PAYMENT_STATUS_REFUNDED:
		return StatusRefunded
	default:
		return StatusPending
	}
}

// allowed transitions. Failed payments may still be captured late; refunds
// only apply to successful payments.
var transitions = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusSuccess:  {},
		StatusFailed:   {},
		StatusRefunded: {},
	},
	StatusFailed: {
		StatusSuccess: {},
	},
	StatusSuccess: {
		StatusRefunded: {},
	},
}

// CheckTransition validates a status change. Returns ErrSameStatus when from
// and to are equal (callers treat it as an idempotent no-op) and
// ErrInvalidTransition when the state machine forbids the change.
func CheckTransition(from, to Status) error {
	if from == to {
		return ErrSameStatus
	}
	if next, ok := transitions[from]; ok {
		if _, ok := next[to]; ok {
			return nil
		}
	}
	return ErrInvalidTransition
}
