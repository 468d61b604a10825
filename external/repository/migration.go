package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE utterance_status AS ENUM ('transcribed', 'no_speech', 'failed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS utterances (
		id UUID PRIMARY KEY,
		session_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		backend TEXT NOT NULL,
		status utterance_status NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		sample_count INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_utterances_created ON utterances (created_at DESC)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
