package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/foliotap/foliotap/internal/pkg/env"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue          *Queue
	snapshotTicker *time.Ticker
	stopCh         chan struct{}
	wg             sync.WaitGroup
	mu             sync.Mutex
	running        bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "3")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	snapshotInterval := 15 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("REVENUE_SNAPSHOT_INTERVAL_MINUTES", "15")); err == nil && v > 0 {
		snapshotInterval = time.Duration(v) * time.Minute
	}
	m.snapshotTicker = time.NewTicker(snapshotInterval)
	m.wg.Add(1)
	go m.snapshotWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.snapshotTicker != nil {
		m.snapshotTicker.Stop()
	}

	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	m.wg.Wait()

	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// snapshotWorker periodically enqueues a revenue snapshot refresh
func (m *Manager) snapshotWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Snapshot worker stopping")
			return
		case <-m.snapshotTicker.C:
			if _, err := m.queue.EnqueueJob(JobTypeRevenueSnapshot, map[string]interface{}{}); err != nil {
				log.Errorf("[JobQueue Manager] Error enqueuing revenue snapshot job: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
