package usecase

import (
	"context"
	"fmt"

	"NewsCurator/internal/domain"
)

// SelectCycle ranks the surviving rated posts by weighted total descending
// (ties broken by ingestion order) and turns the top N into articles with
// generated copy. Generation hiccups fall back to the post's own title and
// description so the selection count never silently shrinks. A cycle that
// already has articles is rejected; the caller must reset it first, since
// re-generation can change wording and silent overwrite is worse than an
// explicit reset.
func (p *Pipeline) SelectCycle(ctx context.Context, cycleID int64) (domain.StageReport, error) {
	var report domain.StageReport

	existing, err := p.articles.CountForCycle(ctx, cycleID)
	if err != nil {
		return report, fmt.Errorf("count articles: %w", err)
	}
	if existing > 0 {
		return report, fmt.Errorf("cycle %d has %d articles: %w", cycleID, existing, ErrAlreadySelected)
	}

	cycle, err := p.cycles.GetCycle(ctx, cycleID)
	if err != nil {
		return report, fmt.Errorf("load cycle %d: %w", cycleID, err)
	}
	if cycle.Status.Terminal() {
		return report, fmt.Errorf("select into %s: %w", cycle, ErrCycleTerminal)
	}

	scored, err := p.posts.SelectablePosts(ctx, cycleID)
	if err != nil {
		return report, fmt.Errorf("load selectable posts: %w", err)
	}
	report.Processed = len(scored)

	limit := cycle.TopCount
	if limit <= 0 || limit > len(scored) {
		if limit <= 0 {
			p.warn("cycle has no top count, selecting all", "cycle", cycleID)
		}
		limit = len(scored)
	}
	report.Skipped = len(scored) - limit

	var fallbacks int
	for i := 0; i < limit; i++ {
		post := scored[i].Post

		headline, body, err := p.generator.Generate(ctx, post.Title, post.Description)
		if err != nil {
			p.warn("content generation failed, using post text", "post", post.ID, "error", err)
			headline, body = post.Title, post.Description
			fallbacks++
		}

		article := domain.Article{
			CycleID:  cycleID,
			PostID:   post.ID,
			Headline: headline,
			Body:     body,
			Rank:     i + 1,
			IsActive: true,
		}
		if _, err := p.articles.InsertArticle(ctx, article); err != nil {
			return report, fmt.Errorf("insert article rank %d: %w", i+1, err)
		}
		report.Succeeded++
	}

	p.debug("selection done", "cycle", cycleID,
		"eligible", report.Processed, "selected", report.Succeeded,
		"below_cutoff", report.Skipped, "generation_fallbacks", fallbacks)

	return report, nil
}
