/*
scheduler.go - Overdue pending application monitor

PURPOSE:
  Periodically lists pending applications whose start date has already
  passed without a decision and logs each one, so wardens notice requests
  that slipped through. Nothing is changed: status moves only through an
  admin decision.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - "Today" is the hostel calendar day from the service clock
  - The last result is kept for /healthz

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the monitor is active (default: true)

USAGE:
  monitor := NewOverdueMonitor(svc, logger)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - handlers.go: OverdueLeaves endpoint (same query, on demand)
  - lifecycle/projection.go: OverduePending
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hostel-leave/leave"
	"github.com/warp/hostel-leave/logger"
)

// OverdueMonitor logs pending applications that should have been decided.
type OverdueMonitor struct {
	Service       *leave.Service
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastCount int
	lastAt    time.Time
}

// NewOverdueMonitor creates a new monitor.
func NewOverdueMonitor(svc *leave.Service, log *zap.Logger) *OverdueMonitor {
	return &OverdueMonitor{
		Service:       svc,
		Logger:        logger.Module(log, "overdue"),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the monitor.
func (m *OverdueMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled {
		m.Logger.Info("overdue monitor disabled, not starting")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.wg.Add(1)

	go m.run(m.ticker.C)

	m.Logger.Info("overdue monitor started", zap.Duration("interval", m.CheckInterval))
}

// Stop stops the monitor and waits for an in-progress check.
func (m *OverdueMonitor) Stop() {
	m.mu.Lock()
	ticker := m.ticker
	m.ticker = nil
	m.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
		close(m.stop)
		m.wg.Wait()
		m.Logger.Info("overdue monitor stopped")
	}
}

// LastCheck returns the number of overdue applications found by the most
// recent check and when it ran. The time is zero before the first check.
func (m *OverdueMonitor) LastCheck() (int, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCount, m.lastAt
}

func (m *OverdueMonitor) run(tick <-chan time.Time) {
	defer m.wg.Done()

	// Run immediately on start
	m.Check(context.Background())

	for {
		select {
		case <-tick:
			m.Check(context.Background())
		case <-m.stop:
			return
		}
	}
}

// Check runs one pass and returns the number of overdue applications.
func (m *OverdueMonitor) Check(ctx context.Context) (int, error) {
	today := m.Service.Today()

	overdue, err := m.Service.OverdueAll(ctx)
	if err != nil {
		m.Logger.Error("overdue check failed", zap.Error(err))
		return 0, err
	}

	for _, app := range overdue {
		m.Logger.Warn("pending leave application past its start date",
			zap.String("leave_id", app.ID),
			zap.String("student_id", app.StudentID),
			zap.String("start_date", app.StartDate.String()),
			zap.Int("days_overdue", app.StartDate.DaysUntil(today)),
		)
	}

	m.mu.Lock()
	m.lastCount = len(overdue)
	m.lastAt = m.Service.Clock()
	m.mu.Unlock()

	if len(overdue) > 0 {
		m.Logger.Info("overdue check completed",
			zap.String("today", today.String()),
			zap.Int("overdue", len(overdue)),
		)
	}
	return len(overdue), nil
}
