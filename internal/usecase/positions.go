package usecase

import (
	"fmt"
	"sort"

	"NewsCurator/internal/domain"
)

// AssignPositions computes the checkpoint position pass: active,
// non-skipped articles sorted by rank ascending receive a dense 1..K
// sequence; everything else receives null. The result depends only on
// rank, is_active, and skipped, so running it twice without intervening
// edits yields identical assignments.
func AssignPositions(articles []domain.Article) []domain.PositionAssignment {
	ordered := make([]domain.Article, len(articles))
	copy(ordered, articles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	assignments := make([]domain.PositionAssignment, 0, len(ordered))
	next := 1
	for _, article := range ordered {
		if !article.InOrdering() {
			assignments = append(assignments, domain.PositionAssignment{ArticleID: article.ID})
			continue
		}
		pos := next
		next++
		assignments = append(assignments, domain.PositionAssignment{ArticleID: article.ID, Position: &pos})
	}

	return assignments
}

// OrderingFor extracts the current live ordering for a field: active,
// non-skipped articles with an assigned position, sorted by that position.
func OrderingFor(articles []domain.Article, field domain.PositionField) []domain.Article {
	var ordered []domain.Article
	for _, article := range articles {
		if article.InOrdering() && article.Position(field) != nil {
			ordered = append(ordered, article)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return *ordered[i].Position(field) < *ordered[j].Position(field)
	})
	return ordered
}

// Reinsert moves the target article to newPos within the given live
// ordering and renumbers densely: the classic remove-from-list,
// reinsert-at-index shuffle. Every article strictly between the old and
// new position shifts by one; no gaps or duplicate positions can result.
func Reinsert(ordered []domain.Article, targetID int64, newPos int) ([]domain.PositionAssignment, error) {
	if newPos < 1 || newPos > len(ordered) {
		return nil, fmt.Errorf("%w: position %d not in 1..%d", ErrPositionOutOfRange, newPos, len(ordered))
	}

	oldIdx := -1
	for i, article := range ordered {
		if article.ID == targetID {
			oldIdx = i
			break
		}
	}
	if oldIdx == -1 {
		return nil, fmt.Errorf("article %d is not part of the active ordering", targetID)
	}

	target := ordered[oldIdx]
	without := append(append([]domain.Article{}, ordered[:oldIdx]...), ordered[oldIdx+1:]...)
	reordered := append(append(append([]domain.Article{}, without[:newPos-1]...), target), without[newPos-1:]...)

	assignments := make([]domain.PositionAssignment, 0, len(reordered))
	for i, article := range reordered {
		pos := i + 1
		assignments = append(assignments, domain.PositionAssignment{ArticleID: article.ID, Position: &pos})
	}

	return assignments, nil
}

// AppendToOrdering places the target article at the end of the live
// ordering, keeping everyone else's relative order. Used when an article
// is un-skipped without an explicit target position.
func AppendToOrdering(articles []domain.Article, field domain.PositionField, targetID int64) ([]domain.PositionAssignment, error) {
	var target *domain.Article
	for i := range articles {
		if articles[i].ID == targetID {
			target = &articles[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("article %d not found among cycle articles", targetID)
	}
	if !target.InOrdering() {
		return nil, fmt.Errorf("article %d is excluded from the active ordering", targetID)
	}

	var rest []domain.Article
	for _, article := range articles {
		if article.ID != targetID {
			rest = append(rest, article)
		}
	}

	ordered := OrderingFor(rest, field)
	assignments := make([]domain.PositionAssignment, 0, len(ordered)+1)
	for i, article := range ordered {
		pos := i + 1
		assignments = append(assignments, domain.PositionAssignment{ArticleID: article.ID, Position: &pos})
	}
	last := len(ordered) + 1
	assignments = append(assignments, domain.PositionAssignment{ArticleID: targetID, Position: &last})

	return assignments, nil
}
