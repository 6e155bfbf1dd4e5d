package storage

import (
	"context"
	"database/sql"
	"fmt"

	"NewsCurator/internal/domain"
)

// SaveRating persists the rating and its per-criterion rows atomically:
// either the whole breakdown lands or nothing does.
func (r *PostgresRepository) SaveRating(ctx context.Context, rating domain.Rating) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ratings (post_id, total, rated_at) VALUES ($1, $2, $3)`,
			rating.PostID, rating.Total, rating.RatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}

		for i, cs := range rating.Criteria {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO rating_criteria (post_id, ord, name, score, reason, weight)
                 VALUES ($1, $2, $3, $4, $5, $6)`,
				rating.PostID, i, cs.Name, cs.Score, cs.Reason, cs.Weight,
			)
			if err != nil {
				return fmt.Errorf("insert criterion %q: %w", cs.Name, err)
			}
		}

		return nil
	})
}

// RatingsForCycle loads every rating with its full criterion breakdown.
func (r *PostgresRepository) RatingsForCycle(ctx context.Context, cycleID int64) ([]domain.Rating, error) {
	query := `SELECT r.post_id, r.total, r.rated_at
              FROM ratings r
              JOIN posts p ON p.id = r.post_id
              WHERE p.cycle_id = $1
              ORDER BY r.post_id ASC`

	rows, err := r.db.QueryContext(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	byPost := map[int64]*domain.Rating{}
	var order []int64
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(&rating.PostID, &rating.Total, &rating.RatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		byPost[rating.PostID] = &rating
		order = append(order, rating.PostID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	criteriaQuery := `SELECT rc.post_id, rc.name, rc.score, rc.reason, rc.weight
                      FROM rating_criteria rc
                      JOIN posts p ON p.id = rc.post_id
                      WHERE p.cycle_id = $1
                      ORDER BY rc.post_id ASC, rc.ord ASC`

	criteriaRows, err := r.db.QueryContext(ctx, criteriaQuery, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query rating criteria: %w", err)
	}
	defer criteriaRows.Close()

	for criteriaRows.Next() {
		var postID int64
		var cs domain.CriterionScore
		if err := criteriaRows.Scan(&postID, &cs.Name, &cs.Score, &cs.Reason, &cs.Weight); err != nil {
			return nil, fmt.Errorf("scan criterion: %w", err)
		}
		if rating, ok := byPost[postID]; ok {
			rating.Criteria = append(rating.Criteria, cs)
		}
	}
	if err := criteriaRows.Err(); err != nil {
		return nil, fmt.Errorf("criteria rows iteration: %w", err)
	}

	ratings := make([]domain.Rating, 0, len(order))
	for _, postID := range order {
		ratings = append(ratings, *byPost[postID])
	}

	return ratings, nil
}

// UpdateTotal rewrites a stored total after a pure recompute.
func (r *PostgresRepository) UpdateTotal(ctx context.Context, postID int64, total float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ratings SET total = $1 WHERE post_id = $2`, total, postID)
	if err != nil {
		return fmt.Errorf("update total: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rating for post %d not found", postID)
	}
	return nil
}
