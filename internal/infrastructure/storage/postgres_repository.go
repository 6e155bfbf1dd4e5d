package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsCurator/internal/ports"
)

// psql builds queries with Postgres-style placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists cycles, posts, ratings, duplicate groups,
// and articles. One struct implements all repository ports; the cycle is
// the transaction boundary, enforced with ON DELETE CASCADE.
type PostgresRepository struct {
	db *sql.DB
}

var (
	_ ports.CycleRepository          = (*PostgresRepository)(nil)
	_ ports.PostRepository           = (*PostgresRepository)(nil)
	_ ports.RatingRepository         = (*PostgresRepository)(nil)
	_ ports.DuplicateGroupRepository = (*PostgresRepository)(nil)
	_ ports.ArticleRepository        = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *PostgresRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
