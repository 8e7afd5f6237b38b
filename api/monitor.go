/*
monitor.go - Periodic workload overload monitor

PURPOSE:
  Recomputes today's per-resource workload totals on an interval and logs
  any resource over the limit. Totals and warnings are derived state, so
  the monitor just re-runs the same pure aggregation the /api/workload
  endpoint uses - nothing is stored.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Samples the clock once per tick and passes it into the computation
  - Safe to stop and restart; Stop waits for the goroutine to exit

USAGE:
  monitor := NewWorkloadMonitor(store, cfg)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - handlers.go: GetWorkload (the on-demand path)
  - engine/workload.go: The aggregation itself
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/yasutakesougo/careops-engine/engine"
	"github.com/yasutakesougo/careops-engine/store/sqlite"
)

// WorkloadMonitor periodically recomputes today's workload and logs overloads.
type WorkloadMonitor struct {
	Store         *sqlite.Store
	Config        Config
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorkloadMonitor creates a monitor with the default hourly interval.
func NewWorkloadMonitor(store *sqlite.Store, cfg Config) *WorkloadMonitor {
	return &WorkloadMonitor{
		Store:         store,
		Config:        cfg,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the monitor.
func (m *WorkloadMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled {
		log.Println("[Monitor] Disabled, not starting")
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.wg.Add(1)
	go m.run()

	log.Printf("[Monitor] Started with check interval: %v", m.CheckInterval)
}

// Stop stops the monitor and waits for the goroutine to exit.
func (m *WorkloadMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
		close(m.stop)
		m.wg.Wait()
		log.Println("[Monitor] Stopped")
	}
}

func (m *WorkloadMonitor) run() {
	defer m.wg.Done()

	// Run immediately on start
	m.check()

	for {
		select {
		case <-m.ticker.C:
			m.check()
		case <-m.stop:
			return
		}
	}
}

func (m *WorkloadMonitor) check() {
	ctx := context.Background()
	now := time.Now()

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	bookings, err := m.Store.ListBookings(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		log.Printf("[Monitor] Failed to list bookings: %v", err)
		return
	}

	totals := engine.AggregateWorkload(bookings, m.Config.WorkloadLimitHours)
	warnings := engine.GenerateWarnings(totals, dayStart, dayStart)
	for _, w := range warnings {
		log.Printf("[Monitor] %s: %s", w.ResourceID, w.Title)
	}
	if len(warnings) == 0 {
		log.Printf("[Monitor] %d resources checked, none over %sh",
			len(totals), m.Config.WorkloadLimitHours.String())
	}
}
