package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

const createGameResultsSQL = `
CREATE TABLE IF NOT EXISTS game_results (
	id             BIGSERIAL PRIMARY KEY,
	code           TEXT NOT NULL,
	quiz_id        TEXT,
	quiz_title     TEXT NOT NULL,
	question_count INT NOT NULL,
	player_count   INT NOT NULL,
	leaderboard    JSONB NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
)`

const createGameResultsIndexSQL = `
CREATE INDEX IF NOT EXISTS game_results_finished_at_idx ON game_results (finished_at DESC)`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, createGameResultsSQL); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, createGameResultsIndexSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS game_results`)
			return err
		},
	)
}
