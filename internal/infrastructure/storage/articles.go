package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsCurator/internal/domain"
)

var articleColumns = []string{
	"id", "cycle_id", "post_id", "headline", "body", "rank",
	"review_position", "final_position", "is_active", "skipped",
}

// CountForCycle counts articles regardless of skip or active flags.
func (r *PostgresRepository) CountForCycle(ctx context.Context, cycleID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE cycle_id = $1`, cycleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// InsertArticle stores one selected article.
func (r *PostgresRepository) InsertArticle(ctx context.Context, article domain.Article) (int64, error) {
	query := `INSERT INTO articles (cycle_id, post_id, headline, body, rank, is_active, skipped)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		article.CycleID, article.PostID, article.Headline, article.Body,
		article.Rank, article.IsActive, article.Skipped,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}

	return id, nil
}

// GetArticle loads one article.
func (r *PostgresRepository) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	builder := psql.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id})

	query, args, err := builder.ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build query: %w", err)
	}

	var article domain.Article
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&article.ID, &article.CycleID, &article.PostID, &article.Headline,
		&article.Body, &article.Rank, &article.ReviewPosition,
		&article.FinalPosition, &article.IsActive, &article.Skipped,
	)
	if err != nil {
		return domain.Article{}, fmt.Errorf("load article %d: %w", id, err)
	}

	return article, nil
}

// ArticlesForCycle returns the cycle's articles by rank ascending.
func (r *PostgresRepository) ArticlesForCycle(ctx context.Context, cycleID int64) ([]domain.Article, error) {
	builder := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"cycle_id": cycleID}).
		OrderBy("rank ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var article domain.Article
		if err := rows.Scan(
			&article.ID, &article.CycleID, &article.PostID, &article.Headline,
			&article.Body, &article.Rank, &article.ReviewPosition,
			&article.FinalPosition, &article.IsActive, &article.Skipped,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// SetSkipped toggles manual exclusion.
func (r *PostgresRepository) SetSkipped(ctx context.Context, id int64, skipped bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles SET skipped = $1 WHERE id = $2`, skipped, id)
	if err != nil {
		return fmt.Errorf("set skipped: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("article %d not found", id)
	}
	return nil
}

// ApplyPositions writes a whole position pass in one transaction, so a
// failure partway leaves the previous ordering intact instead of a
// half-renumbered one.
func (r *PostgresRepository) ApplyPositions(ctx context.Context, cycleID int64, field domain.PositionField, assignments []domain.PositionAssignment) error {
	column, err := positionColumn(field)
	if err != nil {
		return err
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`UPDATE articles SET %s = $1 WHERE id = $2 AND cycle_id = $3`, column)

		for _, assignment := range assignments {
			result, err := tx.ExecContext(ctx, query, assignment.Position, assignment.ArticleID, cycleID)
			if err != nil {
				return fmt.Errorf("apply position for article %d: %w", assignment.ArticleID, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("article %d not in cycle %d", assignment.ArticleID, cycleID)
			}
		}

		return nil
	})
}

// positionColumn whitelists the two ordering columns; the field name is
// interpolated into SQL and must never come from user input unchecked.
func positionColumn(field domain.PositionField) (string, error) {
	switch field {
	case domain.ReviewPositionField:
		return "review_position", nil
	case domain.FinalPositionField:
		return "final_position", nil
	}
	return "", fmt.Errorf("unknown position field %q", field)
}
