package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// DailyTrigger wires the cron driver to the pipeline stages. On each fire
// it ensures a cycle exists for the day and invokes the four stage entry
// points in order, each through its own independent contract. A failed
// stage halts forward progress for that run; completed stages keep their
// rows and the next trigger (or a manual API call) picks up from there.
type DailyTrigger struct {
	driver   ports.Scheduler
	cycles   *Cycles
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewDailyTrigger returns a helper to start/stop the recurring run.
func NewDailyTrigger(driver ports.Scheduler, cycles *Cycles, pipeline *Pipeline, logger *slog.Logger) *DailyTrigger {
	return &DailyTrigger{driver: driver, cycles: cycles, pipeline: pipeline, logger: logger}
}

// Start registers the daily job with the provided scheduler.
func (t *DailyTrigger) Start(ctx context.Context) error {
	if t.driver == nil || t.pipeline == nil || t.cycles == nil {
		return nil
	}

	job := func(trigger time.Time) {
		t.runOnce(ctx, trigger)
	}

	return t.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (t *DailyTrigger) Stop(ctx context.Context) error {
	if t.driver == nil {
		return nil
	}
	return t.driver.Stop(ctx)
}

func (t *DailyTrigger) runOnce(ctx context.Context, trigger time.Time) {
	cycle, err := t.cycles.EnsureForDate(ctx, trigger)
	if err != nil {
		t.logError("ensure cycle", 0, err)
		return
	}

	stages := []struct {
		name string
		run  func(context.Context, int64) (domain.StageReport, error)
	}{
		{"ingest", t.pipeline.IngestCycle},
		{"rate", t.pipeline.RateCycle},
		{"dedup", t.pipeline.DedupCycle},
		{"select", t.pipeline.SelectCycle},
	}

	for _, stage := range stages {
		report, err := stage.run(ctx, cycle.ID)
		if err != nil {
			t.logError(stage.name, cycle.ID, err)
			return
		}
		if t.logger != nil {
			t.logger.Info("stage complete", "stage", stage.name, "cycle", cycle.ID,
				"processed", report.Processed, "succeeded", report.Succeeded,
				"skipped", report.Skipped, "failed", report.Failed)
		}
	}
}

func (t *DailyTrigger) logError(stage string, cycleID int64, err error) {
	if t.logger != nil {
		t.logger.Error("stage failed", "stage", stage, "cycle", cycleID, "error", err)
	}
}
