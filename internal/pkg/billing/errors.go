package billing

import "errors"

var (
	// ErrNotFound covers unknown tokens, plans, orders, payments and users.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is an ownership mismatch (acting on another user's data).
	ErrForbidden = errors.New("operation not permitted for this user")
	// ErrCheckoutExpired is returned when a session's expiry has passed.
	ErrCheckoutExpired = errors.New("checkout session expired")
	// ErrCheckoutCancelled is returned for operations on a cancelled session.
	ErrCheckoutCancelled = errors.New("checkout session cancelled")
	// ErrValidation covers missing or malformed required input.
	ErrValidation = errors.New("invalid input")
	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("email already registered")
)
