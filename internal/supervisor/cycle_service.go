// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package supervisor

import (
	"context"
	"time"

	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/pipeline"
)

// CycleRunner runs one pipeline cycle. *pipeline.Orchestrator satisfies it.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*pipeline.CycleReport, error)
}

// CycleService ticks the pipeline on the daemon interval. The first cycle
// starts immediately so a fresh daemon does not sit idle for hours.
//
// A failed cycle logs and waits for the next tick rather than returning:
// the usual cause is a database outage, and suture's restart backoff would
// only re-run the same failing cycle sooner.
type CycleService struct {
	pipeline CycleRunner
	interval time.Duration
}

// NewCycleService wraps the runner. A non-positive interval falls back to
// six hours, the original deployment's cron cadence.
func NewCycleService(runner CycleRunner, interval time.Duration) *CycleService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &CycleService{pipeline: runner, interval: interval}
}

// Serve implements suture.Service.
func (s *CycleService) Serve(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *CycleService) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	report, err := s.pipeline.RunCycle(ctx)
	if err != nil {
		logging.Err(err).Msg("Pipeline cycle failed, waiting for the next tick")
		return
	}
	logging.Info().
		Str("cycle_id", report.CycleID).
		Dur("next_cycle_in", s.interval).
		Msg(report.String())
}

// String identifies the service in supervision logs.
func (s *CycleService) String() string {
	return "pipeline-cycle"
}
