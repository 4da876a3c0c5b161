// Package jobs runs the engine's periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	auction "league-auction/internal/auctionService"
	"league-auction/utils"
)

// Sweeper is the engine operation run on every tick
type Sweeper interface {
	Sweep(ctx context.Context) (auction.SweepResult, error)
}

// Scheduler triggers sweeps: scheduled activations and overdue finalizations
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
}

// NewScheduler creates a scheduler running in UTC. Overlapping ticks are skipped.
func NewScheduler(sweeper Sweeper, schedule string) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		schedule: schedule,
	}
}

// Start registers the sweep and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("jobs: bad sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	utils.Info("sweep scheduler started", map[string]any{"schedule": s.schedule})
	return nil
}

// RunOnce performs a single sweep and logs its outcome
func (s *Scheduler) RunOnce(ctx context.Context) {
	res, err := s.sweeper.Sweep(ctx)
	if err != nil {
		utils.Error("[CRON] sweep failed", map[string]any{"error": err.Error()})
		return
	}
	utils.Debug("[CRON] sweep done", map[string]any{
		"activated": res.Activated,
		"finalized": res.Finalized,
	})
}

// Stop halts the scheduler and waits for a running sweep to return
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	utils.Info("sweep scheduler stopped", nil)
}
