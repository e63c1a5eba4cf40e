package controllers

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/foliotap/foliotap/internal/pkg/billing"
	"github.com/foliotap/foliotap/internal/pkg/database"
	"github.com/foliotap/foliotap/internal/pkg/env"
	"github.com/foliotap/foliotap/internal/pkg/jobqueue"
	"github.com/foliotap/foliotap/internal/pkg/portfolio"
	"github.com/foliotap/foliotap/internal/pkg/storage"
)

var (
	billingOnce   sync.Once
	billingSvc    *billing.Service
	portfolioOnce sync.Once
	portfolioSvc  *portfolio.Service
	storageOnce   sync.Once
	receiptStore  *storage.Client
)

// getBillingService lazily builds the billing service on first use, backed by
// the global DB handle and the job queue notifier.
func getBillingService() *billing.Service {
	billingOnce.Do(func() {
		notifier := jobqueue.NewQueueNotifier(jobqueue.GetManager().GetQueue())
		frontendURL := env.GetEnv("FRONTEND_URL", "http://localhost:3000")
		billingSvc = billing.NewServiceFromDB(database.GetDB(), notifier, frontendURL)
	})
	return billingSvc
}

func getPortfolioService() *portfolio.Service {
	portfolioOnce.Do(func() {
		portfolioSvc = portfolio.NewServiceFromDB(database.GetDB())
	})
	return portfolioSvc
}

// getReceiptStore returns the S3 receipt client, or nil when receipt storage
// is disabled or misconfigured. Approval works without it; the receipt is
// simply not archived.
func getReceiptStore() *storage.Client {
	storageOnce.Do(func() {
		cfg, err := storage.LoadConfig()
		if err != nil {
			log.Errorf("[Storage] Invalid receipt storage config: %v", err)
			return
		}
		if !cfg.IsEnabled() {
			return
		}
		client, err := storage.NewClient(cfg)
		if err != nil {
			log.Errorf("[Storage] Receipt storage unavailable: %v", err)
			return
		}
		receiptStore = client
	})
	return receiptStore
}
