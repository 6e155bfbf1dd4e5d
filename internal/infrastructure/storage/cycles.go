package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"NewsCurator/internal/domain"
)

// CreateCycle inserts a draft cycle and returns it with its id.
func (r *PostgresRepository) CreateCycle(ctx context.Context, cycle domain.Cycle) (domain.Cycle, error) {
	query := `INSERT INTO cycles (target_date, status, subject, top_count)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		cycle.TargetDate, cycle.Status, cycle.Subject, cycle.TopCount,
	).Scan(&cycle.ID, &cycle.CreatedAt)
	if err != nil {
		return domain.Cycle{}, fmt.Errorf("insert cycle: %w", err)
	}

	return cycle, nil
}

// GetCycle loads one cycle with its active-article count.
func (r *PostgresRepository) GetCycle(ctx context.Context, id int64) (domain.Cycle, error) {
	query := `SELECT c.id, c.target_date, c.status, c.subject, c.top_count, c.created_at,
                     (SELECT COUNT(*) FROM articles a
                      WHERE a.cycle_id = c.id AND a.is_active AND NOT a.skipped)
              FROM cycles c WHERE c.id = $1`

	var cycle domain.Cycle
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cycle.ID, &cycle.TargetDate, &cycle.Status, &cycle.Subject,
		&cycle.TopCount, &cycle.CreatedAt, &cycle.ActiveCount,
	)
	if err != nil {
		return domain.Cycle{}, fmt.Errorf("load cycle %d: %w", id, err)
	}

	return cycle, nil
}

// FindCycleByDate looks a cycle up by its target date.
func (r *PostgresRepository) FindCycleByDate(ctx context.Context, date time.Time) (domain.Cycle, bool, error) {
	query := `SELECT id, target_date, status, subject, top_count, created_at
              FROM cycles WHERE target_date = $1`

	var cycle domain.Cycle
	err := r.db.QueryRowContext(ctx, query, date).Scan(
		&cycle.ID, &cycle.TargetDate, &cycle.Status, &cycle.Subject,
		&cycle.TopCount, &cycle.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cycle{}, false, nil
	}
	if err != nil {
		return domain.Cycle{}, false, fmt.Errorf("find cycle by date: %w", err)
	}

	return cycle, true, nil
}

// UpdateStatus moves the cycle to a new lifecycle state.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status domain.CycleStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE cycles SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update cycle status: %w", err)
	}
	return requireRow(result, id)
}

// UpdateSubject stores the digest subject line.
func (r *PostgresRepository) UpdateSubject(ctx context.Context, id int64, subject string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE cycles SET subject = $1 WHERE id = $2`, subject, id)
	if err != nil {
		return fmt.Errorf("update cycle subject: %w", err)
	}
	return requireRow(result, id)
}

// UpdateTopCount stores the per-cycle selection target.
func (r *PostgresRepository) UpdateTopCount(ctx context.Context, id int64, topCount int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE cycles SET top_count = $1 WHERE id = $2`, topCount, id)
	if err != nil {
		return fmt.Errorf("update cycle top count: %w", err)
	}
	return requireRow(result, id)
}

// ResetCycle deletes everything the cycle owns and returns it to draft.
// Posts cascade to ratings and rating criteria via foreign keys.
func (r *PostgresRepository) ResetCycle(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, query := range []string{
			`DELETE FROM articles WHERE cycle_id = $1`,
			`DELETE FROM duplicate_groups WHERE cycle_id = $1`,
			`DELETE FROM posts WHERE cycle_id = $1`,
			`UPDATE cycles SET status = 'draft' WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("reset cycle %d: %w", id, err)
			}
		}
		return nil
	})
}

func requireRow(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("cycle %d not found", id)
	}
	return nil
}
