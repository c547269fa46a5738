// Package cron runs the background janitor that sweeps idle widget sessions.
package cron

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc drops sessions idle for longer than idleTimeout and returns how
// many were removed.
type SweepFunc func(idleTimeout time.Duration) int

// Janitor periodically sweeps the session store on a cron schedule.
type Janitor struct {
	cron        *cron.Cron
	sweep       SweepFunc
	idleTimeout time.Duration
}

// NewJanitor builds a janitor from a six-field cron spec (with seconds).
func NewJanitor(spec string, idleTimeout time.Duration, sweep SweepFunc) (*Janitor, error) {
	j := &Janitor{
		cron:        cron.New(cron.WithSeconds()),
		sweep:       sweep,
		idleTimeout: idleTimeout,
	}
	if _, err := j.cron.AddFunc(spec, j.run); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) run() {
	start := time.Now()
	removed := j.sweep(j.idleTimeout)
	if removed > 0 {
		slog.Info("session sweep completed", "removed", removed, "duration", time.Since(start))
	}
}

// Start begins the sweep schedule.
func (j *Janitor) Start() {
	j.cron.Start()
	slog.Info("session janitor started", "idleTimeout", j.idleTimeout)
}

// Stop halts the schedule; an in-flight sweep finishes first.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
