package paymentstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{in: "Confirmé", want: StatusSuccess},
		{in: "confirmed", want: StatusSuccess},
		{in: "PAID", want: StatusSuccess},
		{in: "Payé", want: StatusSuccess},
		{in: "payée", want: StatusSuccess},
		{in: "réussi", want: StatusSuccess},
		{in: "Réussie", want: StatusSuccess},
		{in: "succeeded", want: StatusSuccess},
		{in: "completed", want: StatusSuccess},
		{in: "  success  ", want: StatusSuccess},
		{in: "Remboursé", want: StatusRefunded},
		{in: "remboursement", want: StatusRefunded},
		{in: "remboursée", want: StatusRefunded},
		{in: "refunded", want: StatusRefunded},
		{in: "failed", want: StatusFailed},
		{in: "Échoué", want: StatusFailed},
		{in: "echec", want: StatusFailed},
		{in: "pending", want: StatusPending},
		{in: "En_attente", want: StatusPending},
		{in: "banana", want: StatusPending},
		{in: "", want: StatusPending},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusSuccess, StatusFailed, StatusRefunded} {
		assert.Equal(t, s, FromDisplay(Display(s)))
	}
	assert.Equal(t, "Réussi", Display(StatusSuccess))
	assert.Equal(t, "Remboursé", Display(StatusRefunded))
	assert.Equal(t, "Échoué", Display(StatusFailed))
	assert.Equal(t, "En_attente", Display(StatusPending))
}

func TestCheckTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusSuccess},
		{StatusPending, StatusFailed},
		{StatusPending, StatusRefunded},
		{StatusFailed, StatusSuccess},
		{StatusSuccess, StatusRefunded},
	}
	for _, tt := range allowed {
		assert.NoError(t, CheckTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	rejected := []struct{ from, to Status }{
		{StatusSuccess, StatusPending},
		{StatusSuccess, StatusFailed},
		{StatusRefunded, StatusSuccess},
		{StatusRefunded, StatusPending},
		{StatusFailed, StatusRefunded},
	}
	for _, tt := range rejected {
		assert.ErrorIs(t, CheckTransition(tt.from, tt.to), ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
	}

	for _, s := range []Status{StatusPending, StatusSuccess, StatusFailed, StatusRefunded} {
		assert.ErrorIs(t, CheckTransition(s, s), ErrSameStatus)
	}
}
