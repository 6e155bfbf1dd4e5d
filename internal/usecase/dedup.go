package usecase

import (
	"context"
	"fmt"
	"sort"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// DedupCycle clusters the newly-rated posts of a cycle with a single
// external call and marks non-primary group members as duplicates. The
// pass fails open: when clustering fails or returns garbage, nothing is
// marked and every rated post stays eligible for selection. Visible
// editorial duplicates beat silently dropped stories.
func (p *Pipeline) DedupCycle(ctx context.Context, cycleID int64) (domain.StageReport, error) {
	var report domain.StageReport

	posts, err := p.posts.UngroupedRatedPosts(ctx, cycleID)
	if err != nil {
		return report, fmt.Errorf("load rated posts: %w", err)
	}
	report.Processed = len(posts)
	if len(posts) < 2 {
		report.Skipped = len(posts)
		return report, nil
	}

	items := make([]ports.ClusterItem, len(posts))
	for i, post := range posts {
		items[i] = ports.ClusterItem{Index: i, Title: post.Title, Description: post.Description}
	}

	groups, topics, err := p.clusterer.Cluster(ctx, items)
	if err != nil {
		p.warn("dedup pass skipped", "cycle", cycleID, "error", err)
		report.Skipped = len(posts)
		return report, nil
	}

	grouped := map[int]bool{}
	for gi, group := range groups {
		members := uniqueSorted(group)

		// A post belongs to at most one group per cycle.
		kept := members[:0]
		for _, idx := range members {
			if !grouped[idx] {
				kept = append(kept, idx)
			}
		}
		if len(kept) < 2 {
			continue
		}
		for _, idx := range kept {
			grouped[idx] = true
		}

		// Primary is the first by input order; no score-aware tie-break.
		primary := posts[kept[0]]
		duplicateIDs := make([]int64, 0, len(kept)-1)
		for _, idx := range kept[1:] {
			duplicateIDs = append(duplicateIDs, posts[idx].ID)
		}

		group := domain.DuplicateGroup{
			CycleID:       cycleID,
			Topic:         topics[gi],
			PrimaryPostID: primary.ID,
			DuplicateIDs:  duplicateIDs,
		}
		if _, err := p.groups.SaveGroup(ctx, group); err != nil {
			return report, fmt.Errorf("save duplicate group: %w", err)
		}
		if err := p.posts.MarkDuplicates(ctx, duplicateIDs); err != nil {
			return report, fmt.Errorf("mark duplicates: %w", err)
		}

		report.Succeeded += len(kept)
	}

	report.Skipped = report.Processed - report.Succeeded

	p.debug("dedup done", "cycle", cycleID,
		"grouped", report.Succeeded, "singletons", report.Skipped)

	return report, nil
}

func uniqueSorted(indices []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}
