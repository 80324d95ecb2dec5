package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 5 * time.Minute

// AlertSweeper runs the daily low-stock and expiry sweep.
type AlertSweeper interface {
	SendDailyAlerts(ctx context.Context) error
}

// AlertScheduler triggers the alert sweep on a cron schedule.
type AlertScheduler struct {
	cron    *cron.Cron
	sweeper AlertSweeper
	log     *slog.Logger
}

func NewAlertScheduler(schedule string, sweeper AlertSweeper, log *slog.Logger) (*AlertScheduler, error) {
	s := &AlertScheduler{cron: cron.New(), sweeper: sweeper, log: log}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("parse alert schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *AlertScheduler) Start() {
	s.cron.Start()
	s.log.Info("alert scheduler started")
}

// Stop waits for a running sweep to finish.
func (s *AlertScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *AlertScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	if err := s.sweeper.SendDailyAlerts(ctx); err != nil {
		s.log.Error("daily alert sweep failed", "error", err)
		return
	}
	s.log.Info("daily alert sweep done", "duration", time.Since(start))
}
