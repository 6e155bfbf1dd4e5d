package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsCurator/internal/domain"
)

var postColumns = []string{
	"id", "cycle_id", "external_id", "title", "description",
	"author", "image_url", "published_at", "duplicate", "created_at",
}

// ExistingExternalIDs returns which of the given external ids are already
// present for the cycle.
func (r *PostgresRepository) ExistingExternalIDs(ctx context.Context, cycleID int64, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT external_id FROM posts WHERE cycle_id = $1 AND external_id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, cycleID, pq.StringArray(ids))
	if err != nil {
		return nil, fmt.Errorf("query existing posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan external id: %w", err)
		}
		result[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// InsertPost stores one normalized candidate post.
func (r *PostgresRepository) InsertPost(ctx context.Context, post domain.Post) (int64, error) {
	query := `INSERT INTO posts (cycle_id, external_id, title, description, author, image_url, published_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.CycleID, post.ExternalID, post.Title, post.Description,
		post.Author, post.ImageURL, post.PublishedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	return id, nil
}

// UnratedPosts returns cycle posts without a rating, in ingestion order.
func (r *PostgresRepository) UnratedPosts(ctx context.Context, cycleID int64) ([]domain.Post, error) {
	builder := psql.Select(prefixed("p", postColumns)...).
		From("posts p").
		LeftJoin("ratings r ON r.post_id = p.id").
		Where(sq.Eq{"p.cycle_id": cycleID}).
		Where("r.post_id IS NULL").
		OrderBy("p.id ASC")

	return r.queryPosts(ctx, builder)
}

// UngroupedRatedPosts returns rated posts not yet attached to any
// duplicate group, in ingestion order: the dedup batch input.
func (r *PostgresRepository) UngroupedRatedPosts(ctx context.Context, cycleID int64) ([]domain.Post, error) {
	builder := psql.Select(prefixed("p", postColumns)...).
		From("posts p").
		Join("ratings r ON r.post_id = p.id").
		Where(sq.Eq{"p.cycle_id": cycleID, "p.duplicate": false}).
		Where("NOT EXISTS (SELECT 1 FROM duplicate_groups g WHERE g.primary_post_id = p.id)").
		OrderBy("p.id ASC")

	return r.queryPosts(ctx, builder)
}

// SelectablePosts returns rated, non-duplicate posts ordered by weighted
// total descending, ties broken by ingestion order.
func (r *PostgresRepository) SelectablePosts(ctx context.Context, cycleID int64) ([]domain.ScoredPost, error) {
	builder := psql.Select(append(prefixed("p", postColumns), "r.total", "r.rated_at")...).
		From("posts p").
		Join("ratings r ON r.post_id = p.id").
		Where(sq.Eq{"p.cycle_id": cycleID, "p.duplicate": false}).
		OrderBy("r.total DESC", "p.id ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query selectable posts: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredPost
	for rows.Next() {
		var sp domain.ScoredPost
		if err := rows.Scan(
			&sp.Post.ID, &sp.Post.CycleID, &sp.Post.ExternalID, &sp.Post.Title,
			&sp.Post.Description, &sp.Post.Author, &sp.Post.ImageURL,
			&sp.Post.PublishedAt, &sp.Post.Duplicate, &sp.Post.CreatedAt,
			&sp.Rating.Total, &sp.Rating.RatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan scored post: %w", err)
		}
		sp.Rating.PostID = sp.Post.ID
		scored = append(scored, sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return scored, nil
}

// MarkDuplicates flags posts as excluded from selection.
func (r *PostgresRepository) MarkDuplicates(ctx context.Context, postIDs []int64) error {
	if len(postIDs) == 0 {
		return nil
	}

	query := `UPDATE posts SET duplicate = TRUE WHERE id = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, pq.Int64Array(postIDs)); err != nil {
		return fmt.Errorf("mark duplicates: %w", err)
	}
	return nil
}

// SaveGroup records one duplicate group.
func (r *PostgresRepository) SaveGroup(ctx context.Context, group domain.DuplicateGroup) (int64, error) {
	query := `INSERT INTO duplicate_groups (cycle_id, topic, primary_post_id, duplicate_post_ids)
              VALUES ($1, $2, $3, $4)
              RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		group.CycleID, group.Topic, group.PrimaryPostID, pq.Int64Array(group.DuplicateIDs),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert duplicate group: %w", err)
	}

	return id, nil
}

func (r *PostgresRepository) queryPosts(ctx context.Context, builder sq.SelectBuilder) ([]domain.Post, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.ID, &p.CycleID, &p.ExternalID, &p.Title, &p.Description,
			&p.Author, &p.ImageURL, &p.PublishedAt, &p.Duplicate, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return posts, nil
}

func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = alias + "." + col
	}
	return out
}
