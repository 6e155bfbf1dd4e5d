package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// RateCycle scores every unrated post in the cycle against the enabled
// criteria. The criteria config was captured at construction and is passed
// by value, so one run never sees a mid-batch change. Posts are rated
// independently with a bounded worker pool; a failed post stays unrated
// (and therefore unselectable) without blocking the others. Re-running is
// a no-op for already-rated posts.
func (p *Pipeline) RateCycle(ctx context.Context, cycleID int64) (domain.StageReport, error) {
	var report domain.StageReport

	enabled := p.criteria.Enabled()
	if len(enabled) == 0 {
		return report, ErrNoCriteria
	}

	posts, err := p.posts.UnratedPosts(ctx, cycleID)
	if err != nil {
		return report, fmt.Errorf("load unrated posts: %w", err)
	}
	report.Processed = len(posts)
	if len(posts) == 0 {
		return report, nil
	}

	jobs := make(chan domain.Post)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				rating, err := p.ratePost(ctx, post)
				if err != nil {
					p.warn("rating failed", "post", post.ID, "error", err)
					mu.Lock()
					report.Failed++
					mu.Unlock()
					continue
				}
				if err := p.ratings.SaveRating(ctx, rating); err != nil {
					p.warn("save rating failed", "post", post.ID, "error", err)
					mu.Lock()
					report.Failed++
					mu.Unlock()
					continue
				}
				mu.Lock()
				report.Succeeded++
				mu.Unlock()
			}
		}()
	}

	for _, post := range posts {
		jobs <- post
	}
	close(jobs)
	wg.Wait()

	p.debug("rating done", "cycle", cycleID,
		"rated", report.Succeeded, "failed", report.Failed)

	return report, nil
}

// ratePost evaluates one post against every enabled criterion. Ratings are
// all-or-nothing: any missing or out-of-range score fails the whole post
// and nothing is persisted for it.
func (p *Pipeline) ratePost(ctx context.Context, post domain.Post) (domain.Rating, error) {
	rating := domain.Rating{PostID: post.ID, RatedAt: time.Now().UTC()}

	for _, criterion := range p.criteria.Enabled() {
		score, reason, err := p.evaluateWithRetry(ctx, criterion.Name, post)
		if err != nil {
			return domain.Rating{}, fmt.Errorf("criterion %q: %w", criterion.Name, err)
		}
		if !p.criteria.InRange(score) {
			return domain.Rating{}, fmt.Errorf("criterion %q: score %.2f outside [%.1f, %.1f]",
				criterion.Name, score, p.criteria.MinScore, p.criteria.MaxScore)
		}
		rating.Criteria = append(rating.Criteria, domain.CriterionScore{
			Name:   criterion.Name,
			Score:  score,
			Reason: reason,
			Weight: criterion.Weight,
		})
	}

	rating.Total = rating.ComputeTotal()
	return rating, nil
}

// evaluateWithRetry retries transient transport failures with bounded
// attempts. Malformed responses are permanent and never retried.
func (p *Pipeline) evaluateWithRetry(ctx context.Context, criterion string, post domain.Post) (float64, string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.retries; attempt++ {
		score, reason, err := p.evaluator.Evaluate(ctx, criterion, post.Title, post.Description)
		if err == nil {
			return score, reason, nil
		}
		if ports.IsMalformed(err) {
			return 0, "", err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return 0, "", ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return 0, "", fmt.Errorf("after %d attempts: %w", p.retries, lastErr)
}

// RecomputeTotals recalculates every stored total purely from the
// persisted per-criterion rows, without calling the evaluator. Totals that
// already match are left untouched.
func (p *Pipeline) RecomputeTotals(ctx context.Context, cycleID int64) (domain.StageReport, error) {
	var report domain.StageReport

	ratings, err := p.ratings.RatingsForCycle(ctx, cycleID)
	if err != nil {
		return report, fmt.Errorf("load ratings: %w", err)
	}
	report.Processed = len(ratings)

	for _, rating := range ratings {
		computed := rating.ComputeTotal()
		if math.Abs(computed-rating.Total) < 1e-9 {
			report.Skipped++
			continue
		}
		if err := p.ratings.UpdateTotal(ctx, rating.PostID, computed); err != nil {
			p.warn("update total failed", "post", rating.PostID, "error", err)
			report.Failed++
			continue
		}
		report.Succeeded++
	}

	return report, nil
}
