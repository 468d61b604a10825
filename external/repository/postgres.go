package repository

import (
	"context"
	"fmt"

	"github.com/foxseedlab/kikitori/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Open connects to databaseURL and brings the schema up to date.
func Open(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigration(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return NewPostgresRepository(pool), nil
}

func (r *PostgresRepository) InsertUtterance(ctx context.Context, input repository.InsertUtteranceInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO utterances (id, session_id, strategy, backend, status, text, error_message, sample_count, duration_ms, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		input.ID, input.SessionID, input.Strategy, input.Backend, string(input.Status), input.Text, input.ErrorMessage,
		input.SampleCount, input.DurationMillis, input.StartedAt, input.EndedAt)
	return err
}

func (r *PostgresRepository) ListRecentUtterances(ctx context.Context, limit int) ([]repository.Utterance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, strategy, backend, status, text, error_message, sample_count, duration_ms, started_at, ended_at, created_at
		 FROM utterances ORDER BY created_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.Utterance, error) {
		var u repository.Utterance
		var status string
		err := row.Scan(&u.ID, &u.SessionID, &u.Strategy, &u.Backend, &status, &u.Text, &u.ErrorMessage,
			&u.SampleCount, &u.DurationMillis, &u.StartedAt, &u.EndedAt, &u.CreatedAt)
		u.Status = repository.UtteranceStatus(status)
		return u, err
	})
}

// Shutdown closes the pool. It is called by the injector.
func (r *PostgresRepository) Shutdown() {
	r.pool.Close()
}
