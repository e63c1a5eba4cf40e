package controllers

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/foliotap/foliotap/app/models"
	"github.com/foliotap/foliotap/app/repository"
	"github.com/foliotap/foliotap/internal/pkg/billing"
	"github.com/foliotap/foliotap/internal/pkg/statistics"
	"github.com/foliotap/foliotap/internal/pkg/usercontext"
)

type confirmPaymentRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// HandleAdminListCheckouts returns the validation queue, oldest first.
func HandleAdminListCheckouts(c *fiber.Ctx) error {
	status := c.Query("status", models.CHECKOUT_STATUS_CONFIRMED)
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sessions, err := repository.GetGlobalRepositories().CheckoutSession.ListByStatus(status, offset, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"checkouts": sessions})
}

// HandleAdminApproveCheckout validates a manual payment. The optional
// multipart "receipt" file is archived to S3 before the approval runs. The
// operation is idempotent; re-approving an approved session is a no-op.
func HandleAdminApproveCheckout(c *fiber.Ctx) error {
	token := c.Params("token")

	in := billing.ApproveCheckoutInput{
		Reference: c.FormValue("reference"),
		Method:    c.FormValue("method"),
	}

	if file, err := c.FormFile("receipt"); err == nil && file != nil {
		if store := getReceiptStore(); store != nil {
			src, openErr := file.Open()
			if openErr != nil {
				return jsonError(c, fiber.StatusBadRequest, "bad_request", "Justificatif illisible", openErr)
			}
			defer src.Close()

			result, upErr := store.StoreReceipt(c.Context(), token, filepath.Ext(file.Filename), src, file.Size, file.Header.Get("Content-Type"))
			if upErr != nil {
				return handleServiceError(c, upErr)
			}
			in.ReceiptURL = result.URL
		} else {
			log.Warnf("[Admin] Receipt storage disabled, skipping archive for checkout %s", token)
		}
	}

	session, err := getBillingService().ApproveCheckout(c.Context(), token, in)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":  session.Token,
		"status": session.Status,
	})
}

// HandleAdminConfirmPayment applies a raw provider or back-office status to a
// payment. Synonyms and French labels are normalized before the transition
// guard runs.
func HandleAdminConfirmPayment(c *fiber.Ctx) error {
	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Identifiant invalide", err)
	}

	var req confirmPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Statut manquant", nil)
	}

	payment, err := getBillingService().ConfirmPaymentAndValidate(c.Context(), uint(paymentID), req.Status)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"payment": payment})
}

// HandleAdminSetUserActive toggles the login gate of an account.
func HandleAdminSetUserActive(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Identifiant invalide", err)
	}

	var req setActiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := getBillingService().SetUserActive(c.Context(), uint(userID), req.Active); err != nil {
		return handleServiceError(c, err)
	}

	log.Infof("[Admin] User %d set active=%t by admin %d", userID, req.Active, usercontext.GetUserID(c))
	return c.JSON(fiber.Map{"user_id": userID, "is_active": req.Active})
}

// HandleAdminListUsers returns a paginated user listing with optional search.
func HandleAdminListUsers(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	if query := c.Query("q"); query != "" {
		users, err := repos.User.Search(query)
		if err != nil {
			return handleServiceError(c, err)
		}
		return c.JSON(fiber.Map{"users": users})
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	users, err := repos.User.List(offset, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	total, err := repos.User.Count()
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"users": users, "total": total})
}

// HandleAdminListOrders returns all orders for back-office review.
func HandleAdminListOrders(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	repos := repository.GetGlobalRepositories()
	orders, err := repos.Order.List(offset, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	total, err := repos.Order.Count()
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders, "total": total})
}

// HandleAdminUpdateOrderStatus moves an order through its fulfilment states.
func HandleAdminUpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Identifiant invalide", err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if !models.IsValidOrderStatus(req.Status) {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Statut de commande inconnu", nil)
	}

	if err := repository.GetGlobalRepositories().Order.UpdateStatus(uint(orderID), req.Status); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"order_id": orderID, "status": req.Status})
}

// HandleAdminRevenue returns the cached revenue snapshot, refreshing it when
// stale.
func HandleAdminRevenue(c *fiber.Ctx) error {
	statistics.UpdateCacheIfNeeded()
	return c.JSON(statistics.GetRevenueSnapshot())
}
