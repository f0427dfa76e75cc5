package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/metrics"
)

// Sweeper wraps a single gocron job that periodically calls Store.Sweep and
// republishes the active-session gauge. It is patterned after the
// teacher's internal/scheduler.Scheduler, reduced to the one job this
// domain needs instead of one job per policy.
type Sweeper struct {
	cron    gocron.Scheduler
	store   *Store
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewSweeper creates a Sweeper. Call Start to begin running on interval.
// rec may be nil in tests that don't care about metrics.
func NewSweeper(store *Store, rec *metrics.Recorder, logger *zap.Logger) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("sessionstore: creating gocron scheduler: %w", err)
	}
	return &Sweeper{
		cron:    s,
		store:   store,
		metrics: rec,
		logger:  logger.Named("sweeper"),
	}, nil
}

// Start registers the sweep job at the given interval and starts the
// underlying gocron scheduler. The job runs in singleton mode: if a sweep
// is still running when the next tick fires (should never happen in
// practice at a 5-minute cadence), the new tick is skipped rather than
// overlapping.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			removed := s.store.Sweep(ctx, time.Now())
			if removed > 0 {
				s.logger.Info("swept expired sessions", zap.Int("removed", removed))
			}
			s.metrics.SetActiveSessions(s.store.Len())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("sessionstore: scheduling sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("sweeper started", zap.Duration("interval", interval))
	return nil
}

// Stop gracefully shuts down the underlying gocron scheduler.
func (s *Sweeper) Stop() error {
	return s.cron.Shutdown()
}
