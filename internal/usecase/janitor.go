package usecase

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sessionMaxIdle bounds how long an untouched wizard session survives.
const sessionMaxIdle = 2 * time.Hour

// Janitor periodically sweeps resolved capture requests, idle wizard
// sessions, and expired admin tokens on a cron schedule.
type Janitor struct {
	cron      *cron.Cron
	bridge    *Bridge
	wizard    *Wizard
	admin     *AdminService
	retention time.Duration
	logger    *slog.Logger
}

// NewJanitor wires the sweep job onto the given schedule (cron spec or a
// descriptor like "@every 5m"). retention is how long resolved capture
// requests are kept for idempotent polling before being dropped.
func NewJanitor(schedule string, bridge *Bridge, wizard *Wizard, admin *AdminService, retention time.Duration, logger *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:      cron.New(),
		bridge:    bridge,
		wizard:    wizard,
		admin:     admin,
		retention: retention,
		logger:    logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, err
	}
	return j, nil
}

// Start begins the schedule in its own goroutine.
func (j *Janitor) Start() { j.cron.Start() }

// Stop halts the schedule; a sweep in progress finishes first.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) sweep() {
	requests := j.bridge.Sweep(j.retention)
	sessions := j.wizard.Sweep(sessionMaxIdle)
	tokens := j.admin.SweepTokens()
	if requests > 0 || sessions > 0 || tokens > 0 {
		j.logger.Debug("janitor sweep",
			"capture_requests", requests,
			"wizard_sessions", sessions,
			"admin_tokens", tokens,
		)
	}
}
