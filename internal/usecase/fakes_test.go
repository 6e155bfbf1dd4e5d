package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	cycles   map[int64]domain.Cycle
	posts    map[int64]domain.Post
	ratings  map[int64]domain.Rating
	groups   []domain.DuplicateGroup
	articles map[int64]domain.Article
}

func newMemStore() *memStore {
	return &memStore{
		cycles:   map[int64]domain.Cycle{},
		posts:    map[int64]domain.Post{},
		ratings:  map[int64]domain.Rating{},
		articles: map[int64]domain.Article{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addCycle(status domain.CycleStatus, topCount int) domain.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle := domain.Cycle{
		ID:         s.id(),
		TargetDate: time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC),
		Status:     status,
		TopCount:   topCount,
	}
	s.cycles[cycle.ID] = cycle
	return cycle
}

func (s *memStore) addPost(cycleID int64, externalID, title string) domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	post := domain.Post{
		ID:          s.id(),
		CycleID:     cycleID,
		ExternalID:  externalID,
		Title:       title,
		Description: "description of " + title,
		PublishedAt: time.Now().UTC(),
	}
	s.posts[post.ID] = post
	return post
}

func (s *memStore) addRating(postID int64, total float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[postID] = domain.Rating{
		PostID:   postID,
		Criteria: []domain.CriterionScore{{Name: "relevance", Score: total, Weight: 1}},
		Total:    total,
		RatedAt:  time.Now().UTC(),
	}
}

func (s *memStore) addArticle(cycleID int64, rank int) domain.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	article := domain.Article{
		ID:       s.id(),
		CycleID:  cycleID,
		PostID:   s.id(),
		Headline: fmt.Sprintf("headline %d", rank),
		Body:     fmt.Sprintf("body %d", rank),
		Rank:     rank,
		IsActive: true,
	}
	s.articles[article.ID] = article
	return article
}

func (s *memStore) CreateCycle(ctx context.Context, cycle domain.Cycle) (domain.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle.ID = s.id()
	cycle.CreatedAt = time.Now().UTC()
	s.cycles[cycle.ID] = cycle
	return cycle, nil
}

func (s *memStore) GetCycle(ctx context.Context, id int64) (domain.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle, ok := s.cycles[id]
	if !ok {
		return domain.Cycle{}, fmt.Errorf("cycle %d not found", id)
	}
	return cycle, nil
}

func (s *memStore) FindCycleByDate(ctx context.Context, date time.Time) (domain.Cycle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cycle := range s.cycles {
		if cycle.TargetDate.Equal(date) {
			return cycle, true, nil
		}
	}
	return domain.Cycle{}, false, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id int64, status domain.CycleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle, ok := s.cycles[id]
	if !ok {
		return fmt.Errorf("cycle %d not found", id)
	}
	cycle.Status = status
	s.cycles[id] = cycle
	return nil
}

func (s *memStore) UpdateSubject(ctx context.Context, id int64, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle := s.cycles[id]
	cycle.Subject = subject
	s.cycles[id] = cycle
	return nil
}

func (s *memStore) UpdateTopCount(ctx context.Context, id int64, topCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle := s.cycles[id]
	cycle.TopCount = topCount
	s.cycles[id] = cycle
	return nil
}

func (s *memStore) ResetCycle(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for postID, post := range s.posts {
		if post.CycleID == id {
			delete(s.posts, postID)
			delete(s.ratings, postID)
		}
	}
	var groups []domain.DuplicateGroup
	for _, group := range s.groups {
		if group.CycleID != id {
			groups = append(groups, group)
		}
	}
	s.groups = groups
	for articleID, article := range s.articles {
		if article.CycleID == id {
			delete(s.articles, articleID)
		}
	}
	cycle := s.cycles[id]
	cycle.Status = domain.StatusDraft
	s.cycles[id] = cycle
	return nil
}

func (s *memStore) ExistingExternalIDs(ctx context.Context, cycleID int64, ids []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	result := map[string]bool{}
	for _, post := range s.posts {
		if post.CycleID == cycleID && wanted[post.ExternalID] {
			result[post.ExternalID] = true
		}
	}
	return result, nil
}

func (s *memStore) InsertPost(ctx context.Context, post domain.Post) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ID = s.id()
	s.posts[post.ID] = post
	return post.ID, nil
}

func (s *memStore) cyclePostsLocked(cycleID int64) []domain.Post {
	var posts []domain.Post
	for _, post := range s.posts {
		if post.CycleID == cycleID {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts
}

func (s *memStore) UnratedPosts(ctx context.Context, cycleID int64) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Post
	for _, post := range s.cyclePostsLocked(cycleID) {
		if _, rated := s.ratings[post.ID]; !rated {
			out = append(out, post)
		}
	}
	return out, nil
}

func (s *memStore) UngroupedRatedPosts(ctx context.Context, cycleID int64) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	primaries := map[int64]bool{}
	for _, group := range s.groups {
		primaries[group.PrimaryPostID] = true
	}
	var out []domain.Post
	for _, post := range s.cyclePostsLocked(cycleID) {
		if _, rated := s.ratings[post.ID]; !rated {
			continue
		}
		if post.Duplicate || primaries[post.ID] {
			continue
		}
		out = append(out, post)
	}
	return out, nil
}

func (s *memStore) SelectablePosts(ctx context.Context, cycleID int64) ([]domain.ScoredPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ScoredPost
	for _, post := range s.cyclePostsLocked(cycleID) {
		rating, rated := s.ratings[post.ID]
		if !rated || post.Duplicate {
			continue
		}
		out = append(out, domain.ScoredPost{Post: post, Rating: rating})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating.Total != out[j].Rating.Total {
			return out[i].Rating.Total > out[j].Rating.Total
		}
		return out[i].Post.ID < out[j].Post.ID
	})
	return out, nil
}

func (s *memStore) MarkDuplicates(ctx context.Context, postIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range postIDs {
		post := s.posts[id]
		post.Duplicate = true
		s.posts[id] = post
	}
	return nil
}

func (s *memStore) SaveRating(ctx context.Context, rating domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ratings[rating.PostID]; exists {
		return fmt.Errorf("rating for post %d already exists", rating.PostID)
	}
	s.ratings[rating.PostID] = rating
	return nil
}

func (s *memStore) RatingsForCycle(ctx context.Context, cycleID int64) ([]domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Rating
	for _, post := range s.cyclePostsLocked(cycleID) {
		if rating, ok := s.ratings[post.ID]; ok {
			out = append(out, rating)
		}
	}
	return out, nil
}

func (s *memStore) UpdateTotal(ctx context.Context, postID int64, total float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rating, ok := s.ratings[postID]
	if !ok {
		return fmt.Errorf("rating for post %d not found", postID)
	}
	rating.Total = total
	s.ratings[postID] = rating
	return nil
}

func (s *memStore) SaveGroup(ctx context.Context, group domain.DuplicateGroup) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group.ID = s.id()
	s.groups = append(s.groups, group)
	return group.ID, nil
}

func (s *memStore) CountForCycle(ctx context.Context, cycleID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, article := range s.articles {
		if article.CycleID == cycleID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) InsertArticle(ctx context.Context, article domain.Article) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	article.ID = s.id()
	s.articles[article.ID] = article
	return article.ID, nil
}

func (s *memStore) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	article, ok := s.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("article %d not found", id)
	}
	return article, nil
}

func (s *memStore) ArticlesForCycle(ctx context.Context, cycleID int64) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Article
	for _, article := range s.articles {
		if article.CycleID == cycleID {
			out = append(out, article)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (s *memStore) SetSkipped(ctx context.Context, id int64, skipped bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	article, ok := s.articles[id]
	if !ok {
		return fmt.Errorf("article %d not found", id)
	}
	article.Skipped = skipped
	s.articles[id] = article
	return nil
}

func (s *memStore) ApplyPositions(ctx context.Context, cycleID int64, field domain.PositionField, assignments []domain.PositionAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, assignment := range assignments {
		article, ok := s.articles[assignment.ArticleID]
		if !ok || article.CycleID != cycleID {
			return fmt.Errorf("article %d not in cycle %d", assignment.ArticleID, cycleID)
		}
		var pos *int
		if assignment.Position != nil {
			v := *assignment.Position
			pos = &v
		}
		if field == domain.FinalPositionField {
			article.FinalPosition = pos
		} else {
			article.ReviewPosition = pos
		}
		s.articles[assignment.ArticleID] = article
	}
	return nil
}

// fakeSource returns a fixed candidate list.
type fakeSource struct {
	posts []domain.Post
	err   error
}

func (f *fakeSource) FetchCandidates(ctx context.Context) ([]domain.Post, error) {
	return f.posts, f.err
}

// fakeEvaluator scores via a caller-provided function.
type fakeEvaluator struct {
	mu    sync.Mutex
	calls int
	fn    func(criterion, title string) (float64, string, error)
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, criterion, title, body string) (float64, string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(criterion, title)
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeClusterer returns canned groups or a canned error.
type fakeClusterer struct {
	groups [][]int
	topics []string
	err    error
}

func (f *fakeClusterer) Cluster(ctx context.Context, items []ports.ClusterItem) ([][]int, []string, error) {
	return f.groups, f.topics, f.err
}

// fakeGenerator rewrites the title or fails wholesale.
type fakeGenerator struct {
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, title, body string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "generated: " + title, "generated body for " + title, nil
}

func testCriteria() domain.CriteriaConfig {
	return domain.CriteriaConfig{
		MinScore: 0,
		MaxScore: 10,
		Criteria: []domain.Criterion{
			{Name: "relevance", Weight: 2, Enabled: true},
			{Name: "timeliness", Weight: 1, Enabled: true},
			{Name: "novelty", Weight: 3, Enabled: false},
		},
	}
}

func testPipeline(store *memStore, deps PipelineDeps) *Pipeline {
	if deps.Cycles == nil {
		deps.Cycles = store
	}
	deps.Posts = store
	deps.Ratings = store
	deps.Groups = store
	deps.Articles = store
	if deps.Criteria.MaxScore == 0 {
		deps.Criteria = testCriteria()
	}
	if deps.Workers == 0 {
		deps.Workers = 2
	}
	if deps.Retries == 0 {
		deps.Retries = 2
	}
	return NewPipeline(deps)
}
