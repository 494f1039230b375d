package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepInterval is how often expired sessions are swept.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper runs Manager.Sweep on a cron schedule.
type Sweeper struct {
	cron *cron.Cron
}

// NewSweeper schedules m.Sweep every interval. Call Start to begin.
// PRE: interval >= 1s
func NewSweeper(m *Manager, interval time.Duration) (*Sweeper, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("sweep interval must be at least 1s, got %s", interval)
	}
	c := cron.New()
	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := c.AddFunc(schedule, func() { runSweep(m) }); err != nil {
		return nil, fmt.Errorf("schedule session sweep: %w", err)
	}
	return &Sweeper{cron: c}, nil
}

// Start begins the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func runSweep(m *Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := m.Sweep(ctx)
	if err != nil {
		slog.Error("session_event", "event", "sweep_failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("session_event", "event", "swept", "expired", n)
	}
}
