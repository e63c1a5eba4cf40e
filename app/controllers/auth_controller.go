package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/foliotap/foliotap/app/models"
	"github.com/foliotap/foliotap/app/repository"
	"github.com/foliotap/foliotap/internal/pkg/billing"
	"github.com/foliotap/foliotap/internal/pkg/env"
	"github.com/foliotap/foliotap/internal/pkg/jobqueue"
	"github.com/foliotap/foliotap/internal/pkg/session"
	"github.com/foliotap/foliotap/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	PlanSlug string `json:"plan_slug"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account. Free-plan signups are activated right
// away; paid-plan signups stay inactive and receive a checkout session that
// an admin must approve before the account can log in.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := getBillingService().Register(c.Context(), billing.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		PlanSlug: req.PlanSlug,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	sendVerificationEmail(result.User)

	response := fiber.Map{
		"user": fiber.Map{
			"id":        result.User.ID,
			"name":      result.User.Name,
			"email":     result.User.Email,
			"is_active": result.User.IsActive,
		},
	}
	if result.Checkout != nil {
		response["checkout"] = result.Checkout
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

// HandleVerifyEmail marks the account email as verified via the token sent
// at registration.
func HandleVerifyEmail(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Jeton manquant", nil)
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Jeton de vérification invalide", err)
		}
		return handleServiceError(c, err)
	}

	user.Verified = true
	user.ActivationToken = ""
	if err := repos.User.Update(user); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"verified": true})
}

// HandleLogin authenticates with email and password. Inactive accounts are
// rejected with 403 even when the credentials are correct.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "Identifiants invalides", nil)
		}
		return handleServiceError(c, err)
	}

	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "Identifiants invalides", nil)
	}

	if !user.IsActive {
		return jsonError(c, fiber.StatusForbidden, "account_inactive", "Compte inactif. Votre paiement est en attente de validation.", nil)
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return handleServiceError(c, err)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		log.Errorf("[Auth] Failed to record login time for user %d: %v", user.ID, err)
	}

	if sub, err := getBillingService().ResolveCurrentSubscription(c.Context(), user.ID); err == nil && sub != nil && sub.Plan != nil {
		_ = session.SetSessionValue(c, usercontext.KeyPlan, sub.Plan.Slug)
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"is_admin": user.Role == models.ROLE_ADMIN,
		},
	})
}

// HandleLogout destroys the current session
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if destroyErr := sess.Destroy(); destroyErr != nil {
			log.Errorf("[Auth] Failed to destroy session: %v", destroyErr)
		}
	}
	return c.JSON(fiber.Map{"logged_out": true})
}

func sendVerificationEmail(user *models.User) {
	frontendURL := env.GetEnv("FRONTEND_URL", "http://localhost:3000")
	verifyURL := fmt.Sprintf("%s/verify/%s", frontendURL, user.ActivationToken)
	body := fmt.Sprintf("<p>Bonjour %s,</p><p>Confirmez votre adresse email : <a href=%q>%s</a></p>", user.Name, verifyURL, verifyURL)

	notifier := jobqueue.NewQueueNotifier(jobqueue.GetManager().GetQueue())
	if err := notifier.Send(user.Email, "Confirmez votre adresse email", body); err != nil {
		log.Errorf("[Auth] Failed to enqueue verification email for %s: %v", user.Email, err)
	}
}
