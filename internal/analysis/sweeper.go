package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleSweeper is the part of Service the sweeper drives
type StaleSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

var _ StaleSweeper = (*Service)(nil)

// Sweeper periodically fails analyses orphaned by a crash or restart
type Sweeper struct {
	service  StaleSweeper
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper running on a cron spec such as "@every 1m"
func NewSweeper(service StaleSweeper, schedule string, log *zap.Logger) *Sweeper {
	if log == nil {
		log = logger.Get()
	}
	return &Sweeper{
		service: service,
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		))),
		schedule: schedule,
		timeout:  30 * time.Second,
		logger:   log,
	}
}

// Start schedules the sweep and starts the cron loop
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("stale analysis sweeper started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("stale analysis sweeper stopped")
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.service.SweepStale(ctx)
	if err != nil {
		s.logger.Error("failed to sweep stale analyses", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Warn("marked stale analyses as failed", zap.Int("count", n))
	}
}
