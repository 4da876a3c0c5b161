package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"league-auction/utils"
)

// migrations are applied in order; a version is never applied twice
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		team_id    TEXT PRIMARY KEY,
		balance    BIGINT NOT NULL CHECK (balance >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		player_id  TEXT PRIMARY KEY,
		team_id    TEXT REFERENCES teams(team_id),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id          BIGSERIAL PRIMARY KEY,
		team_id     TEXT NOT NULL REFERENCES teams(team_id),
		amount      BIGINT NOT NULL,
		entry_type  TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS auctions (
		auction_id     TEXT PRIMARY KEY,
		player_id      TEXT NOT NULL,
		start_price    BIGINT NOT NULL,
		current_bid    BIGINT NOT NULL,
		current_bidder TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL,
		scheduled_at   TIMESTAMPTZ,
		start_time     TIMESTAMPTZ,
		end_time       TIMESTAMPTZ,
		bid_count      INTEGER NOT NULL DEFAULT 0,
		extensions     INTEGER NOT NULL DEFAULT 0,
		flagged        BOOLEAN NOT NULL DEFAULT FALSE,
		flag_reason    TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		CHECK (current_bid >= start_price)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_status ON auctions (status)`,
	`CREATE TABLE IF NOT EXISTS auction_bids (
		bid_id     TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL REFERENCES auctions(auction_id),
		team_id    TEXT NOT NULL,
		amount     BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auction_bids_auction_id ON auction_bids (auction_id, amount)`,
	`CREATE TABLE IF NOT EXISTS auction_settlements (
		auction_id     TEXT PRIMARY KEY REFERENCES auctions(auction_id),
		player_id      TEXT NOT NULL,
		winner_team_id TEXT NOT NULL DEFAULT '',
		seller_team_id TEXT NOT NULL DEFAULT '',
		amount         BIGINT NOT NULL,
		outcome        TEXT NOT NULL,
		reason         TEXT NOT NULL,
		released       INTEGER NOT NULL DEFAULT 0,
		complete       BOOLEAN NOT NULL,
		errors         TEXT[] NOT NULL DEFAULT '{}',
		settled_at     TIMESTAMPTZ NOT NULL
	)`,
	// at most one open auction per player
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_auctions_open_player ON auctions (player_id)
		WHERE status IN ('pending', 'active')`,
}

// Migrate applies every migration not yet recorded in schema_migrations
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, sql := range migrations {
		if err := execMigration(ctx, pool, i+1, sql); err != nil {
			return err
		}
	}
	utils.Info("database schema up to date", map[string]any{"version": len(migrations)})
	return nil
}

func execMigration(ctx context.Context, pool *pgxpool.Pool, version int, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check migration %d: %w", version, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("apply migration %d: %w", version, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return fmt.Errorf("record migration %d: %w", version, err)
	}
	return tx.Commit(ctx)
}
