// Package scheduler runs the fund's periodic maintenance jobs: rebalancing,
// fee collection, queue compaction and share-price snapshots.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/fund"
	"github.com/quantfold/vault/internal/modules/history"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Config holds scheduler configuration. Empty schedules disable their job.
type Config struct {
	Fund    *fund.Fund
	History *history.Service

	// Operator is the whitelisted account the jobs act as.
	Operator string

	RebalanceSchedule string
	FeeSchedule       string
	QueueTrimSchedule string
	SnapshotSchedule  string

	Log zerolog.Logger
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates the scheduler and registers the configured jobs.
func New(cfg Config) (*Scheduler, error) {
	log := cfg.Log.With().Str("component", "scheduler").Logger()
	c := cron.New()

	jobs := []struct {
		name     string
		schedule string
		run      func()
	}{
		{"rebalance", cfg.RebalanceSchedule, func() {
			if err := cfg.Fund.DeployCapital(context.Background(), cfg.Operator); err != nil {
				log.Warn().Err(err).Msg("Scheduled rebalance failed")
			}
		}},
		{"collect_fees", cfg.FeeSchedule, func() {
			if _, err := cfg.Fund.CollectFees(context.Background(), cfg.Operator); err != nil {
				if errors.Is(err, domain.ErrNoGains) {
					log.Debug().Msg("Scheduled fee collection: no gains")
					return
				}
				log.Warn().Err(err).Msg("Scheduled fee collection failed")
			}
		}},
		{"trim_queue", cfg.QueueTrimSchedule, func() {
			removed, err := cfg.Fund.TrimQueue(context.Background(), cfg.Operator)
			if err != nil {
				log.Warn().Err(err).Msg("Scheduled queue trim failed")
				return
			}
			if removed > 0 {
				log.Info().Int("removed", removed).Msg("Scheduled queue trim compacted entries")
			}
		}},
		{"price_snapshot", cfg.SnapshotSchedule, func() {
			if err := cfg.History.Capture(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Scheduled price snapshot failed")
			}
		}},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			log.Debug().Str("job", job.name).Msg("Job disabled")
			continue
		}
		if _, err := c.AddFunc(job.schedule, job.run); err != nil {
			return nil, fmt.Errorf("failed to schedule %s job (%q): %w", job.name, job.schedule, err)
		}
		log.Info().Str("job", job.name).Str("schedule", job.schedule).Msg("Job scheduled")
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start begins running the scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
