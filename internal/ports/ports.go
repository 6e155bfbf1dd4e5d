package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NewsCurator/internal/domain"
)

// PostSource pulls normalized candidate posts from all configured feeds.
type PostSource interface {
	FetchCandidates(ctx context.Context) ([]domain.Post, error)
}

// CycleRepository manages publication cycles; reset cascades everything a
// cycle owns.
type CycleRepository interface {
	CreateCycle(ctx context.Context, cycle domain.Cycle) (domain.Cycle, error)
	GetCycle(ctx context.Context, id int64) (domain.Cycle, error)
	FindCycleByDate(ctx context.Context, date time.Time) (domain.Cycle, bool, error)
	UpdateStatus(ctx context.Context, id int64, status domain.CycleStatus) error
	UpdateSubject(ctx context.Context, id int64, subject string) error
	UpdateTopCount(ctx context.Context, id int64, topCount int) error
	ResetCycle(ctx context.Context, id int64) error
}

// PostRepository persists candidate posts for one cycle.
type PostRepository interface {
	ExistingExternalIDs(ctx context.Context, cycleID int64, ids []string) (map[string]bool, error)
	InsertPost(ctx context.Context, post domain.Post) (int64, error)
	UnratedPosts(ctx context.Context, cycleID int64) ([]domain.Post, error)
	UngroupedRatedPosts(ctx context.Context, cycleID int64) ([]domain.Post, error)
	SelectablePosts(ctx context.Context, cycleID int64) ([]domain.ScoredPost, error)
	MarkDuplicates(ctx context.Context, postIDs []int64) error
}

// RatingRepository persists per-criterion scores and derived totals.
type RatingRepository interface {
	SaveRating(ctx context.Context, rating domain.Rating) error
	RatingsForCycle(ctx context.Context, cycleID int64) ([]domain.Rating, error)
	UpdateTotal(ctx context.Context, postID int64, total float64) error
}

// DuplicateGroupRepository records topic clusters found by the dedup pass.
type DuplicateGroupRepository interface {
	SaveGroup(ctx context.Context, group domain.DuplicateGroup) (int64, error)
}

// ArticleRepository persists selected articles and their two orderings.
// ApplyPositions must update all assignments in one transaction.
type ArticleRepository interface {
	CountForCycle(ctx context.Context, cycleID int64) (int, error)
	InsertArticle(ctx context.Context, article domain.Article) (int64, error)
	GetArticle(ctx context.Context, id int64) (domain.Article, error)
	ArticlesForCycle(ctx context.Context, cycleID int64) ([]domain.Article, error)
	SetSkipped(ctx context.Context, id int64, skipped bool) error
	ApplyPositions(ctx context.Context, cycleID int64, field domain.PositionField, assignments []domain.PositionAssignment) error
}

// CriteriaEvaluator scores one post against one named criterion.
type CriteriaEvaluator interface {
	Evaluate(ctx context.Context, criterion, title, body string) (score float64, reason string, err error)
}

// ClusterItem is one candidate submitted to the topic clusterer.
type ClusterItem struct {
	Index       int
	Title       string
	Description string
}

// TopicClusterer groups candidate indices that share a topic. The topics
// slice is parallel to groups; groups of size one are ignored by callers.
type TopicClusterer interface {
	Cluster(ctx context.Context, items []ClusterItem) (groups [][]int, topics []string, err error)
}

// ContentGenerator produces a headline and body for a selected post.
type ContentGenerator interface {
	Generate(ctx context.Context, title, body string) (headline, generated string, err error)
}

// Scheduler controls when pipeline stages execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// MalformedResponseError marks a structurally invalid external response:
// a permanent failure for its unit of work, never retried.
type MalformedResponseError struct {
	Raw string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed external response: %s", e.Raw)
}

// IsMalformed reports whether err wraps a MalformedResponseError.
func IsMalformed(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}
