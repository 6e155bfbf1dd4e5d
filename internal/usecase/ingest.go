package usecase

import (
	"context"
	"fmt"

	"NewsCurator/internal/domain"
)

// IngestCycle pulls candidates from all active sources and inserts every
// entry not already present for the cycle, matched by external id. New
// posts become eligible for rating, not yet for selection. Per-source
// failures were already swallowed by the source; a repository failure on
// one post is tallied and the run continues.
func (p *Pipeline) IngestCycle(ctx context.Context, cycleID int64) (domain.StageReport, error) {
	var report domain.StageReport

	cycle, err := p.cycles.GetCycle(ctx, cycleID)
	if err != nil {
		return report, fmt.Errorf("load cycle %d: %w", cycleID, err)
	}
	if cycle.Status.Terminal() {
		return report, fmt.Errorf("ingest into %s: %w", cycle, ErrCycleTerminal)
	}

	candidates, err := p.source.FetchCandidates(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch candidates: %w", err)
	}
	report.Processed = len(candidates)

	ids := make([]string, len(candidates))
	for i, post := range candidates {
		ids[i] = post.ExternalID
	}

	existing := map[string]bool{}
	if len(ids) > 0 {
		existing, err = p.posts.ExistingExternalIDs(ctx, cycleID, ids)
		if err != nil {
			return report, fmt.Errorf("load existing posts: %w", err)
		}
	}

	for _, post := range candidates {
		if existing[post.ExternalID] {
			report.Skipped++
			continue
		}

		post.CycleID = cycleID
		if _, err := p.posts.InsertPost(ctx, post); err != nil {
			p.warn("insert post failed", "external_id", post.ExternalID, "error", err)
			report.Failed++
			continue
		}
		report.Succeeded++
	}

	p.debug("ingest done", "cycle", cycleID,
		"fetched", report.Processed, "inserted", report.Succeeded,
		"already_present", report.Skipped, "failed", report.Failed)

	return report, nil
}
