package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// Editorial handles the manual actions that mutate a cycle's article set:
// lifecycle transitions, skip toggles, and reorders. Renumbering reads the
// current ordering and rewrites many rows, so every mutation on the same
// cycle is serialized behind a per-cycle lock.
type Editorial struct {
	cycles   ports.CycleRepository
	articles ports.ArticleRepository
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEditorial constructs the editorial action handler.
func NewEditorial(cycles ports.CycleRepository, articles ports.ArticleRepository, logger *slog.Logger) *Editorial {
	return &Editorial{
		cycles:   cycles,
		articles: articles,
		logger:   logger,
		locks:    map[int64]*sync.Mutex{},
	}
}

func (e *Editorial) lockCycle(cycleID int64) func() {
	e.mu.Lock()
	lock, ok := e.locks[cycleID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[cycleID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Transition moves the cycle to a new lifecycle state. Entering in_review
// assigns review positions; entering sent assigns final positions. Illegal
// moves and any transition out of sent are rejected.
func (e *Editorial) Transition(ctx context.Context, cycleID int64, to domain.CycleStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	unlock := e.lockCycle(cycleID)
	defer unlock()

	cycle, err := e.cycles.GetCycle(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("load cycle %d: %w", cycleID, err)
	}
	if cycle.Status.Terminal() {
		return fmt.Errorf("%s: %w", cycle, ErrCycleTerminal)
	}
	if !domain.CanTransition(cycle.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cycle.Status, to)
	}

	// Positions are written before the status row moves: a failed pass
	// leaves the cycle in its prior state instead of transitioned with
	// stale positions, and the position pass itself is idempotent.
	switch to {
	case domain.StatusInReview:
		if err := e.recompute(ctx, cycleID, domain.ReviewPositionField); err != nil {
			return err
		}
	case domain.StatusSent:
		if err := e.recompute(ctx, cycleID, domain.FinalPositionField); err != nil {
			return err
		}
	}

	if err := e.cycles.UpdateStatus(ctx, cycleID, to); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("cycle transitioned", "cycle", cycleID, "from", cycle.Status, "to", to)
	}
	return nil
}

// Skip toggles an article in or out of the active ordering. Skipping
// triggers the checkpoint recomputation to close the gap; un-skipping
// appends the article at the end unless a target position is supplied.
func (e *Editorial) Skip(ctx context.Context, articleID int64, skipped bool, targetPos *int) error {
	article, err := e.articles.GetArticle(ctx, articleID)
	if err != nil {
		return fmt.Errorf("load article %d: %w", articleID, err)
	}

	unlock := e.lockCycle(article.CycleID)
	defer unlock()

	cycle, err := e.cycles.GetCycle(ctx, article.CycleID)
	if err != nil {
		return fmt.Errorf("load cycle %d: %w", article.CycleID, err)
	}
	if cycle.Status.Terminal() {
		return fmt.Errorf("%s: %w", cycle, ErrCycleTerminal)
	}

	// Before the first review pass there are no positions a target could
	// refer to, so a supplied one is rejected rather than dropped.
	if cycle.Status == domain.StatusDraft && targetPos != nil {
		return ErrNoOrdering
	}

	if err := e.articles.SetSkipped(ctx, articleID, skipped); err != nil {
		return fmt.Errorf("set skipped: %w", err)
	}

	// In draft there are no positions to maintain yet.
	if cycle.Status == domain.StatusDraft {
		return nil
	}

	if skipped {
		return e.recompute(ctx, article.CycleID, domain.ReviewPositionField)
	}

	articles, err := e.articles.ArticlesForCycle(ctx, article.CycleID)
	if err != nil {
		return fmt.Errorf("load cycle articles: %w", err)
	}

	assignments, err := AppendToOrdering(articles, domain.ReviewPositionField, articleID)
	if err != nil {
		return err
	}
	if err := e.articles.ApplyPositions(ctx, article.CycleID, domain.ReviewPositionField, assignments); err != nil {
		return fmt.Errorf("apply positions: %w", err)
	}

	if targetPos != nil {
		return e.reorderLocked(ctx, article.CycleID, articleID, *targetPos)
	}
	return nil
}

// Reorder moves an article to a new 1-based position within the active
// ordering, shifting everything strictly between the old and new slots.
// All renumbered rows are applied in one transaction.
func (e *Editorial) Reorder(ctx context.Context, articleID int64, newPos int) error {
	article, err := e.articles.GetArticle(ctx, articleID)
	if err != nil {
		return fmt.Errorf("load article %d: %w", articleID, err)
	}

	unlock := e.lockCycle(article.CycleID)
	defer unlock()

	cycle, err := e.cycles.GetCycle(ctx, article.CycleID)
	if err != nil {
		return fmt.Errorf("load cycle %d: %w", article.CycleID, err)
	}
	if cycle.Status.Terminal() {
		return fmt.Errorf("%s: %w", cycle, ErrCycleTerminal)
	}
	if cycle.Status == domain.StatusDraft {
		return ErrNoOrdering
	}

	return e.reorderLocked(ctx, article.CycleID, articleID, newPos)
}

func (e *Editorial) reorderLocked(ctx context.Context, cycleID, articleID int64, newPos int) error {
	articles, err := e.articles.ArticlesForCycle(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("load cycle articles: %w", err)
	}

	ordered := OrderingFor(articles, domain.ReviewPositionField)
	if len(ordered) == 0 {
		return ErrNoOrdering
	}

	assignments, err := Reinsert(ordered, articleID, newPos)
	if err != nil {
		return err
	}

	if err := e.articles.ApplyPositions(ctx, cycleID, domain.ReviewPositionField, assignments); err != nil {
		return fmt.Errorf("apply positions: %w", err)
	}
	return nil
}

// RecomputePositions re-runs the checkpoint position pass for the field
// that matches the cycle's progress. Safe to call repeatedly: with no
// intervening edits the assignments are identical.
func (e *Editorial) RecomputePositions(ctx context.Context, cycleID int64, field domain.PositionField) error {
	unlock := e.lockCycle(cycleID)
	defer unlock()
	return e.recompute(ctx, cycleID, field)
}

func (e *Editorial) recompute(ctx context.Context, cycleID int64, field domain.PositionField) error {
	articles, err := e.articles.ArticlesForCycle(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("load cycle articles: %w", err)
	}

	assignments := AssignPositions(articles)
	if err := e.articles.ApplyPositions(ctx, cycleID, field, assignments); err != nil {
		return fmt.Errorf("apply %s: %w", field, err)
	}
	return nil
}
