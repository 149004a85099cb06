package health

import (
	"sync"
	"time"

	"github.com/gymgate/gymgate/internal/clock"
	"go.uber.org/fx"
)

// UpstreamStatus reflects the last observed state of the Square API.
type UpstreamStatus string

const (
	UpstreamConnected     UpstreamStatus = "connected"
	UpstreamError         UpstreamStatus = "error"
	UpstreamNotConfigured UpstreamStatus = "not_configured"
)

type LastError struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

type LastCheckIn struct {
	Timestamp    time.Time `json:"timestamp"`
	CustomerName string    `json:"customer_name"`
	Success      bool      `json:"success"`
}

type Snapshot struct {
	UpstreamStatus UpstreamStatus `json:"square_api_status"`
	LastError      *LastError     `json:"last_error"`
	LastCheckIn    *LastCheckIn   `json:"last_check_in"`
	StartupTime    time.Time      `json:"startup_time"`
}

// Tracker is process-lifetime, advisory-only state consumed by the admin
// dashboard. It never influences admission decisions and resets on restart.
type Tracker struct {
	mu    sync.RWMutex
	clock clock.Clock
	state Snapshot
}

func NewTracker(clk clock.Clock) *Tracker {
	return &Tracker{
		clock: clk,
		state: Snapshot{
			UpstreamStatus: UpstreamNotConfigured,
			StartupTime:    clk.Now(),
		},
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Tracker) SetUpstreamStatus(status UpstreamStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.UpstreamStatus = status
}

func (t *Tracker) RecordError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastError = &LastError{
		Timestamp: t.clock.Now(),
		Message:   message,
	}
}

func (t *Tracker) RecordCheckIn(customerName string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastCheckIn = &LastCheckIn{
		Timestamp:    t.clock.Now(),
		CustomerName: customerName,
		Success:      success,
	}
}

// Reset restores startup state. Administrative operation only.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Snapshot{
		UpstreamStatus: UpstreamNotConfigured,
		StartupTime:    t.clock.Now(),
	}
}

var Module = fx.Module("health",
	fx.Provide(NewTracker),
)
