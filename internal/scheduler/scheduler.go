// Package scheduler drives periodic refresh cycles off a cron
// expression.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"chartlens/internal/refresh"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the refresh service on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	svc  *refresh.Service
	ctx  context.Context
	log  *slog.Logger
}

// New creates a scheduler bound to the refresh service.
func New(ctx context.Context, svc *refresh.Service, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		svc:  svc,
		ctx:  ctx,
		log:  log,
	}
}

// Register installs the periodic refresh task. Expressions use the
// six-field cron format with seconds, e.g. "0 */15 * * * *" for every
// fifteen minutes.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.cron.AddFunc(refreshCron, func() {
		s.log.Info("scheduled refresh starting")
		s.svc.RefreshAll(s.ctx)
	}); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("scheduler stopped")
}
