package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

func TestIngestCycleInsertsNewPosts(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	existing := store.addPost(cycle.ID, "ext-1", "Old story")

	source := &fakeSource{posts: []domain.Post{
		{ExternalID: existing.ExternalID, Title: "Old story"},
		{ExternalID: "ext-2", Title: "Fresh story"},
		{ExternalID: "ext-3", Title: "Another story"},
	}}

	p := testPipeline(store, PipelineDeps{Source: source})

	report, err := p.IngestCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("IngestCycle error: %v", err)
	}

	if report.Processed != 3 || report.Succeeded != 2 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	posts, _ := store.UnratedPosts(context.Background(), cycle.ID)
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts in cycle, got %d", len(posts))
	}
}

func TestIngestCycleRejectsSentCycle(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusSent, 10)
	p := testPipeline(store, PipelineDeps{Source: &fakeSource{}})

	if _, err := p.IngestCycle(context.Background(), cycle.ID); !errors.Is(err, ErrCycleTerminal) {
		t.Fatalf("expected ErrCycleTerminal, got %v", err)
	}
}

func TestRateCyclePersistsWeightedTotal(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	post := store.addPost(cycle.ID, "ext-1", "Story")

	evaluator := &fakeEvaluator{fn: func(criterion, title string) (float64, string, error) {
		switch criterion {
		case "relevance":
			return 8, "very local", nil
		case "timeliness":
			return 5, "from this morning", nil
		}
		return 0, "", fmt.Errorf("unexpected criterion %s", criterion)
	}}

	p := testPipeline(store, PipelineDeps{Evaluator: evaluator})

	report, err := p.RateCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("RateCycle error: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	rating := store.ratings[post.ID]
	// relevance 8*2 + timeliness 5*1; the disabled criterion is never called.
	if rating.Total != 21 {
		t.Fatalf("expected total 21, got %v", rating.Total)
	}
	if len(rating.Criteria) != 2 {
		t.Fatalf("expected 2 criterion rows, got %d", len(rating.Criteria))
	}
	if rating.ComputeTotal() != rating.Total {
		t.Fatalf("stored total %v drifts from recompute %v", rating.Total, rating.ComputeTotal())
	}
}

func TestRateCycleAllOrNothing(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	post := store.addPost(cycle.ID, "ext-1", "Story")

	evaluator := &fakeEvaluator{fn: func(criterion, title string) (float64, string, error) {
		if criterion == "relevance" {
			return 8, "fine", nil
		}
		return 0, "", &ports.MalformedResponseError{Raw: "no score field"}
	}}

	p := testPipeline(store, PipelineDeps{Evaluator: evaluator})

	report, err := p.RateCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("RateCycle error: %v", err)
	}
	if report.Failed != 1 || report.Succeeded != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, exists := store.ratings[post.ID]; exists {
		t.Fatal("partial rating must not be persisted")
	}
}

func TestRateCycleRejectsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	post := store.addPost(cycle.ID, "ext-1", "Story")

	evaluator := &fakeEvaluator{fn: func(criterion, title string) (float64, string, error) {
		return 42, "overflow", nil
	}}

	p := testPipeline(store, PipelineDeps{Evaluator: evaluator})

	report, err := p.RateCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("RateCycle error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected 1 failed post, got %+v", report)
	}
	if _, exists := store.ratings[post.ID]; exists {
		t.Fatal("out-of-range score must not produce a rating")
	}
}

func TestRateCycleDoesNotRetryMalformed(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	store.addPost(cycle.ID, "ext-1", "Story")

	evaluator := &fakeEvaluator{fn: func(criterion, title string) (float64, string, error) {
		return 0, "", &ports.MalformedResponseError{Raw: "garbage"}
	}}

	p := testPipeline(store, PipelineDeps{Evaluator: evaluator, Retries: 3})

	if _, err := p.RateCycle(context.Background(), cycle.ID); err != nil {
		t.Fatalf("RateCycle error: %v", err)
	}
	if evaluator.callCount() != 1 {
		t.Fatalf("malformed response retried: %d calls", evaluator.callCount())
	}
}

func TestRateCycleIdempotent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	post := store.addPost(cycle.ID, "ext-1", "Story")
	store.addRating(post.ID, 7)

	evaluator := &fakeEvaluator{fn: func(criterion, title string) (float64, string, error) {
		return 9, "should not be called", nil
	}}

	p := testPipeline(store, PipelineDeps{Evaluator: evaluator})

	report, err := p.RateCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("RateCycle error: %v", err)
	}
	if report.Processed != 0 {
		t.Fatalf("already-rated post re-processed: %+v", report)
	}
	if evaluator.callCount() != 0 {
		t.Fatalf("evaluator called %d times for rated post", evaluator.callCount())
	}
}

func TestRecomputeTotalsFixesDrift(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	post := store.addPost(cycle.ID, "ext-1", "Story")
	store.addRating(post.ID, 7)

	// Corrupt the stored total; the criterion rows stay authoritative.
	rating := store.ratings[post.ID]
	rating.Total = 99
	store.ratings[post.ID] = rating

	p := testPipeline(store, PipelineDeps{Evaluator: &fakeEvaluator{fn: nil}})

	report, err := p.RecomputeTotals(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("RecomputeTotals error: %v", err)
	}
	if report.Succeeded != 1 {
		t.Fatalf("expected 1 corrected total, got %+v", report)
	}
	if got := store.ratings[post.ID].Total; got != 7 {
		t.Fatalf("expected total 7 after recompute, got %v", got)
	}
}

func TestDedupCycleMarksGroupMembers(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	first := store.addPost(cycle.ID, "ext-1", "Fire downtown")
	second := store.addPost(cycle.ID, "ext-2", "School board vote")
	third := store.addPost(cycle.ID, "ext-3", "Blaze in city center")
	for _, post := range []domain.Post{first, second, third} {
		store.addRating(post.ID, 5)
	}

	clusterer := &fakeClusterer{groups: [][]int{{0, 2}}, topics: []string{"downtown fire"}}
	p := testPipeline(store, PipelineDeps{Clusterer: clusterer})

	report, err := p.DedupCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("DedupCycle error: %v", err)
	}
	if report.Succeeded != 2 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	if store.posts[first.ID].Duplicate {
		t.Fatal("primary post must not be marked duplicate")
	}
	if store.posts[second.ID].Duplicate {
		t.Fatal("singleton post must be untouched")
	}
	if !store.posts[third.ID].Duplicate {
		t.Fatal("non-primary group member must be marked duplicate")
	}

	if len(store.groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(store.groups))
	}
	group := store.groups[0]
	if group.PrimaryPostID != first.ID {
		t.Fatalf("primary must be first by input order, got post %d", group.PrimaryPostID)
	}
	if group.Topic != "downtown fire" {
		t.Fatalf("unexpected topic: %s", group.Topic)
	}
}

func TestDedupCycleFailsOpen(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	for i := 0; i < 3; i++ {
		post := store.addPost(cycle.ID, fmt.Sprintf("ext-%d", i), fmt.Sprintf("Story %d", i))
		store.addRating(post.ID, 5)
	}

	clusterer := &fakeClusterer{err: &ports.MalformedResponseError{Raw: "not json"}}
	p := testPipeline(store, PipelineDeps{Clusterer: clusterer})

	report, err := p.DedupCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("fail-open dedup must not return an error, got %v", err)
	}
	if report.Succeeded != 0 || report.Skipped != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	for _, post := range store.posts {
		if post.Duplicate {
			t.Fatal("no post may be marked duplicate when clustering fails")
		}
	}
}

func TestDedupCyclePostInSingleGroupOnly(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	for i := 0; i < 4; i++ {
		post := store.addPost(cycle.ID, fmt.Sprintf("ext-%d", i), fmt.Sprintf("Story %d", i))
		store.addRating(post.ID, 5)
	}

	// Index 1 appears in both groups; only the first group may keep it.
	clusterer := &fakeClusterer{groups: [][]int{{0, 1}, {1, 2, 3}}, topics: []string{"a", "b"}}
	p := testPipeline(store, PipelineDeps{Clusterer: clusterer})

	if _, err := p.DedupCycle(context.Background(), cycle.ID); err != nil {
		t.Fatalf("DedupCycle error: %v", err)
	}

	counts := map[int64]int{}
	for _, group := range store.groups {
		counts[group.PrimaryPostID]++
		for _, id := range group.DuplicateIDs {
			counts[id]++
		}
	}
	for id, count := range counts {
		if count > 1 {
			t.Fatalf("post %d appears in %d groups", id, count)
		}
	}
}

func TestSelectCycleTopNByScore(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 2)
	first := store.addPost(cycle.ID, "ext-1", "Seven")
	second := store.addPost(cycle.ID, "ext-2", "Five")
	third := store.addPost(cycle.ID, "ext-3", "Nine")
	store.addRating(first.ID, 7.0)
	store.addRating(second.ID, 5.0)
	store.addRating(third.ID, 9.0)

	p := testPipeline(store, PipelineDeps{Generator: &fakeGenerator{}})

	report, err := p.SelectCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("SelectCycle error: %v", err)
	}
	if report.Succeeded != 2 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	articles, _ := store.ArticlesForCycle(context.Background(), cycle.ID)
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Rank != 1 || articles[0].PostID != third.ID {
		t.Fatalf("rank 1 must be the 9.0 post, got post %d", articles[0].PostID)
	}
	if articles[1].Rank != 2 || articles[1].PostID != first.ID {
		t.Fatalf("rank 2 must be the 7.0 post, got post %d", articles[1].PostID)
	}
}

func TestSelectCycleGenerationFallback(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 5)
	post := store.addPost(cycle.ID, "ext-1", "Original title")
	store.addRating(post.ID, 8)

	p := testPipeline(store, PipelineDeps{
		Generator: &fakeGenerator{err: &ports.MalformedResponseError{Raw: "empty"}},
	})

	report, err := p.SelectCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("SelectCycle error: %v", err)
	}
	// A fallback still counts as one selected unit: the tally must keep
	// partitioning the processed posts.
	if report.Succeeded != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Succeeded+report.Skipped+report.Failed != report.Processed {
		t.Fatalf("report does not partition processed units: %+v", report)
	}

	articles, _ := store.ArticlesForCycle(context.Background(), cycle.ID)
	if len(articles) != 1 {
		t.Fatal("generation failure must not shrink the selection")
	}
	if articles[0].Headline != post.Title || articles[0].Body != post.Description {
		t.Fatalf("expected verbatim fallback, got %q / %q", articles[0].Headline, articles[0].Body)
	}
}

func TestSelectCycleExcludesDuplicates(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 10)
	keep := store.addPost(cycle.ID, "ext-1", "Primary")
	dup := store.addPost(cycle.ID, "ext-2", "Duplicate")
	store.addRating(keep.ID, 6)
	store.addRating(dup.ID, 9)
	if err := store.MarkDuplicates(context.Background(), []int64{dup.ID}); err != nil {
		t.Fatalf("mark duplicates: %v", err)
	}

	p := testPipeline(store, PipelineDeps{Generator: &fakeGenerator{}})

	if _, err := p.SelectCycle(context.Background(), cycle.ID); err != nil {
		t.Fatalf("SelectCycle error: %v", err)
	}

	articles, _ := store.ArticlesForCycle(context.Background(), cycle.ID)
	if len(articles) != 1 || articles[0].PostID != keep.ID {
		t.Fatalf("duplicate post selected: %+v", articles)
	}
}

func TestSelectCycleRejectsSecondRun(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 5)
	post := store.addPost(cycle.ID, "ext-1", "Story")
	store.addRating(post.ID, 8)

	p := testPipeline(store, PipelineDeps{Generator: &fakeGenerator{}})

	if _, err := p.SelectCycle(context.Background(), cycle.ID); err != nil {
		t.Fatalf("first SelectCycle error: %v", err)
	}
	if _, err := p.SelectCycle(context.Background(), cycle.ID); !errors.Is(err, ErrAlreadySelected) {
		t.Fatalf("expected ErrAlreadySelected, got %v", err)
	}
}

func TestSelectCycleAfterResetSucceeds(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cycle := store.addCycle(domain.StatusDraft, 5)
	post := store.addPost(cycle.ID, "ext-1", "Story")
	store.addRating(post.ID, 8)

	p := testPipeline(store, PipelineDeps{Generator: &fakeGenerator{}})
	ctx := context.Background()

	if _, err := p.SelectCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("first SelectCycle error: %v", err)
	}
	if err := store.ResetCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("reset error: %v", err)
	}

	count, _ := store.CountForCycle(ctx, cycle.ID)
	if count != 0 {
		t.Fatalf("reset must cascade articles, %d remain", count)
	}
}
