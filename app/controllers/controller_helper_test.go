package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotap/foliotap/internal/pkg/billing"
	"github.com/foliotap/foliotap/internal/pkg/entitlements"
)

// serve runs handleServiceError for err and returns status plus decoded body.
func serve(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return handleServiceError(c, err)
	})

	resp, reqErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, reqErr)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleServiceErrorQuota(t *testing.T) {
	status, body := serve(t, &entitlements.QuotaError{
		Tier:   "Starter",
		Limit:  "projects",
		Max:    3,
		Reason: "Le plan Starter autorise au maximum 3 projet(s)",
	})

	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "quota_exceeded", body["error"])
	assert.Equal(t, "Le plan Starter autorise au maximum 3 projet(s)", body["message"])
}

func TestHandleServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", billing.ErrNotFound, fiber.StatusNotFound, "not_found"},
		{"forbidden", billing.ErrForbidden, fiber.StatusForbidden, "forbidden"},
		{"email taken", billing.ErrEmailTaken, fiber.StatusConflict, "email_taken"},
		{"expired checkout", billing.ErrCheckoutExpired, fiber.StatusConflict, "checkout_expired"},
		{"validation", billing.ErrValidation, fiber.StatusUnprocessableEntity, "validation_failed"},
		{"unknown", assert.AnError, fiber.StatusInternalServerError, "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serve(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["error"])
		})
	}
}
