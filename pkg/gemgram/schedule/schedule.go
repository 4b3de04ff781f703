// Package schedule runs the daily quota roll-over at a fixed wall-clock
// time in the reference zone. The lazy staleness check in quota.Status
// already guarantees correctness; this task only makes the reset happen
// even on days without traffic.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zawhtut/gemgram/pkg/gemgram/quota"
)

// DailyReset triggers quota.Store.Reset once per day.
type DailyReset struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates the reset task firing at "HH:MM" (reference-zone wall clock).
func New(q *quota.Store, at string, loc *time.Location, logger *slog.Logger) (*DailyReset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "schedule")

	spec, err := CronSpec(at)
	if err != nil {
		return nil, err
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(spec, func() {
		// Tolerate a momentarily unavailable store: log and wait for the
		// next trigger (or the lazy check) instead of crashing.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := q.Reset(ctx); err != nil {
			logger.Warn("scheduled quota reset skipped", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("registering reset job: %w", err)
	}

	return &DailyReset{cron: c, logger: logger}, nil
}

// Start begins firing. Non-blocking.
func (d *DailyReset) Start() {
	d.cron.Start()
	d.logger.Info("daily quota reset scheduled")
}

// Stop halts the trigger and waits for a running job to finish.
func (d *DailyReset) Stop() {
	<-d.cron.Stop().Done()
}

// CronSpec converts an "HH:MM" wall-clock time into a daily cron spec.
func CronSpec(at string) (string, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(at), ":")
	if !ok {
		return "", fmt.Errorf("invalid reset time %q, want HH:MM", at)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid reset hour in %q", at)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid reset minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
