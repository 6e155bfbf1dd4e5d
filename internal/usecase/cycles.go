package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// Cycles manages publication-cycle records: the unit of one digest run and
// the transaction boundary for everything the pipeline produces.
type Cycles struct {
	repo       ports.CycleRepository
	defaultTop int
	logger     *slog.Logger
}

// NewCycles constructs the cycle management service.
func NewCycles(repo ports.CycleRepository, defaultTop int, logger *slog.Logger) *Cycles {
	return &Cycles{repo: repo, defaultTop: defaultTop, logger: logger}
}

// CreateForDate starts a draft cycle for the target date with the
// configured default selection target.
func (c *Cycles) CreateForDate(ctx context.Context, date time.Time) (domain.Cycle, error) {
	cycle := domain.Cycle{
		TargetDate: date.UTC().Truncate(24 * time.Hour),
		Status:     domain.StatusDraft,
		TopCount:   c.defaultTop,
	}
	created, err := c.repo.CreateCycle(ctx, cycle)
	if err != nil {
		return domain.Cycle{}, fmt.Errorf("create cycle: %w", err)
	}
	if c.logger != nil {
		c.logger.Info("cycle created", "cycle", created.ID, "date", created.TargetDate.Format("2006-01-02"))
	}
	return created, nil
}

// EnsureForDate returns the cycle for the date, creating a draft one if
// none exists yet. Used by the daily trigger.
func (c *Cycles) EnsureForDate(ctx context.Context, date time.Time) (domain.Cycle, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	cycle, found, err := c.repo.FindCycleByDate(ctx, day)
	if err != nil {
		return domain.Cycle{}, fmt.Errorf("find cycle for %s: %w", day.Format("2006-01-02"), err)
	}
	if found {
		return cycle, nil
	}
	return c.CreateForDate(ctx, day)
}

// Get loads one cycle.
func (c *Cycles) Get(ctx context.Context, id int64) (domain.Cycle, error) {
	return c.repo.GetCycle(ctx, id)
}

// SetSubject updates the digest subject line.
func (c *Cycles) SetSubject(ctx context.Context, id int64, subject string) error {
	cycle, err := c.repo.GetCycle(ctx, id)
	if err != nil {
		return fmt.Errorf("load cycle %d: %w", id, err)
	}
	if cycle.Status.Terminal() {
		return fmt.Errorf("%s: %w", cycle, ErrCycleTerminal)
	}
	return c.repo.UpdateSubject(ctx, id, subject)
}

// SetTopCount updates the per-cycle selection target.
func (c *Cycles) SetTopCount(ctx context.Context, id int64, topCount int) error {
	if topCount < 1 {
		return fmt.Errorf("top count must be positive, got %d", topCount)
	}
	cycle, err := c.repo.GetCycle(ctx, id)
	if err != nil {
		return fmt.Errorf("load cycle %d: %w", id, err)
	}
	if cycle.Status.Terminal() {
		return fmt.Errorf("%s: %w", cycle, ErrCycleTerminal)
	}
	return c.repo.UpdateTopCount(ctx, id, topCount)
}

// Reset cascades deletion of the cycle's posts, ratings, duplicate groups,
// and articles, and returns the cycle to draft. The only way to redo a
// selection pass. Rejected for sent cycles.
func (c *Cycles) Reset(ctx context.Context, id int64) error {
	cycle, err := c.repo.GetCycle(ctx, id)
	if err != nil {
		return fmt.Errorf("load cycle %d: %w", id, err)
	}
	if cycle.Status.Terminal() {
		return fmt.Errorf("%s: %w", cycle, ErrCycleTerminal)
	}
	if err := c.repo.ResetCycle(ctx, id); err != nil {
		return fmt.Errorf("reset cycle %d: %w", id, err)
	}
	if c.logger != nil {
		c.logger.Info("cycle reset", "cycle", id)
	}
	return nil
}
