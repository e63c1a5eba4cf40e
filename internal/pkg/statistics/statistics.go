package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/foliotap/foliotap/app/models"
	"github.com/foliotap/foliotap/app/repository"
	"github.com/foliotap/foliotap/internal/pkg/cache"
	"github.com/foliotap/foliotap/internal/pkg/database"
)

const (
	CacheKeyRevenueGross    = "statistics:revenue:gross"
	CacheKeyRevenueRefunded = "statistics:revenue:refunded"
	CacheKeyInvoicesPaid    = "statistics:invoices:paid"
	CacheKeyUsersTotal      = "statistics:users:total"
	CacheKeyUsersActive     = "statistics:users:active"
	CacheKeySubscriptions   = "statistics:subscriptions:total"
	CacheExpiration         = 30 * time.Minute
)

// RevenueSnapshot holds the aggregated billing figures for the admin dashboard
type RevenueSnapshot struct {
	GrossRevenue    int64 `json:"gross_revenue"`
	RefundedAmount  int64 `json:"refunded_amount"`
	NetRevenue      int64 `json:"net_revenue"`
	PaidInvoices    int64 `json:"paid_invoices"`
	TotalUsers      int64 `json:"total_users"`
	ActiveUsers     int64 `json:"active_users"`
	SubscriptionLog int64 `json:"subscription_rows"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the snapshot is older than the update interval
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the snapshot when it is stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateRevenueSnapshot(); err != nil {
			log.Printf("Error updating revenue snapshot: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded call to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateRevenueSnapshot recomputes all billing aggregates and stores them in the cache
func UpdateRevenueSnapshot() error {
	db := database.GetDB()
	repos := repository.NewRepositories(db)

	gross, err := repos.Invoice.SumAmountByStatus(models.INVOICE_STATUS_PAID)
	if err != nil {
		log.Printf("Error summing paid invoices: %v", err)
		return err
	}

	refunded, err := repos.Invoice.SumAmountByStatus(models.INVOICE_STATUS_REFUNDED)
	if err != nil {
		log.Printf("Error summing refunded invoices: %v", err)
		return err
	}

	var paidInvoices int64
	if err := db.Model(&models.Invoice{}).Where("status = ?", models.INVOICE_STATUS_PAID).Count(&paidInvoices).Error; err != nil {
		log.Printf("Error counting paid invoices: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	var activeUsers int64
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&activeUsers).Error; err != nil {
		log.Printf("Error counting active users: %v", err)
		return err
	}

	subscriptionRows, err := repos.Subscription.Count()
	if err != nil {
		log.Printf("Error counting subscription rows: %v", err)
		return err
	}

	values := map[string]int64{
		CacheKeyRevenueGross:    gross,
		CacheKeyRevenueRefunded: refunded,
		CacheKeyInvoicesPaid:    paidInvoices,
		CacheKeyUsersTotal:      totalUsers,
		CacheKeyUsersActive:     activeUsers,
		CacheKeySubscriptions:   subscriptionRows,
	}
	for key, value := range values {
		if err := cache.Set(key, strconv.FormatInt(value, 10), CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
			return err
		}
	}

	return nil
}

func cachedInt64(key string) (int64, bool) {
	val, err := cache.Get(key)
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetRevenueSnapshot returns the snapshot from cache, refreshing it on a miss
func GetRevenueSnapshot() RevenueSnapshot {
	gross, ok := cachedInt64(CacheKeyRevenueGross)
	if !ok {
		if err := UpdateRevenueSnapshot(); err != nil {
			log.Printf("Error refreshing revenue snapshot: %v", err)
			return RevenueSnapshot{}
		}
		gross, _ = cachedInt64(CacheKeyRevenueGross)
	}

	refunded, _ := cachedInt64(CacheKeyRevenueRefunded)
	paidInvoices, _ := cachedInt64(CacheKeyInvoicesPaid)
	totalUsers, _ := cachedInt64(CacheKeyUsersTotal)
	activeUsers, _ := cachedInt64(CacheKeyUsersActive)
	subscriptionRows, _ := cachedInt64(CacheKeySubscriptions)

	return RevenueSnapshot{
		GrossRevenue:    gross,
		RefundedAmount:  refunded,
		NetRevenue:      gross + refunded,
		PaidInvoices:    paidInvoices,
		TotalUsers:      totalUsers,
		ActiveUsers:     activeUsers,
		SubscriptionLog: subscriptionRows,
	}
}
