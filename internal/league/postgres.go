package league

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"league-auction/internal/auctionerrors"
)

// PostgresLedger reads and moves team balances in the teams table,
// writing one ledger_entries row per movement
type PostgresLedger struct {
	db *pgxpool.Pool
}

func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// GetBalance returns the team's ledger balance
func (l *PostgresLedger) GetBalance(ctx context.Context, teamID string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `SELECT balance FROM teams WHERE team_id = $1`, teamID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ledger: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: get balance for team %s: %w", teamID, err)
	}
	return balance, nil
}

// Debit removes amount from the team's balance
func (l *PostgresLedger) Debit(ctx context.Context, teamID string, amount int64) error {
	return l.move(ctx, teamID, -amount, EntryDebit)
}

// Credit adds amount to the team's balance
func (l *PostgresLedger) Credit(ctx context.Context, teamID string, amount int64) error {
	return l.move(ctx, teamID, amount, EntryCredit)
}

func (l *PostgresLedger) move(ctx context.Context, teamID string, delta int64, kind string) error {
	if delta == 0 {
		return fmt.Errorf("ledger: %w - zero amount", auctionerrors.ErrInvalidBid)
	}
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance FROM teams WHERE team_id = $1 FOR UPDATE`, teamID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ledger: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	if err != nil {
		return fmt.Errorf("ledger: lock team %s: %w", teamID, err)
	}
	if balance+delta < 0 {
		return fmt.Errorf("ledger: %w - team %s has %d, debit is %d",
			auctionerrors.ErrInsufficientBalance, teamID, balance, -delta)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE teams SET balance = balance + $2, updated_at = NOW() WHERE team_id = $1`,
		teamID, delta,
	); err != nil {
		return fmt.Errorf("ledger: update team %s: %w", teamID, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (team_id, amount, entry_type) VALUES ($1, $2, $3)`,
		teamID, delta, kind,
	); err != nil {
		return fmt.Errorf("ledger: insert entry for team %s: %w", teamID, err)
	}
	return tx.Commit(ctx)
}

// PostgresRoster reads and updates player ownership in the players table
type PostgresRoster struct {
	db *pgxpool.Pool
}

func NewPostgresRoster(db *pgxpool.Pool) *PostgresRoster {
	return &PostgresRoster{db: db}
}

func (r *PostgresRoster) PlayerExists(ctx context.Context, playerID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM players WHERE player_id = $1)`, playerID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("roster: check player %s: %w", playerID, err)
	}
	return exists, nil
}

// Owner returns the team owning the player, or "" for a free agent
func (r *PostgresRoster) Owner(ctx context.Context, playerID string) (string, error) {
	var team *string
	err := r.db.QueryRow(ctx, `SELECT team_id FROM players WHERE player_id = $1`, playerID).Scan(&team)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("roster: player %s: %w", playerID, auctionerrors.ErrPlayerNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("roster: get owner of %s: %w", playerID, err)
	}
	if team == nil {
		return "", nil
	}
	return *team, nil
}

// ReassignPlayer moves the player to teamID
func (r *PostgresRoster) ReassignPlayer(ctx context.Context, playerID, teamID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET team_id = $2, updated_at = NOW() WHERE player_id = $1`, playerID, teamID)
	if err != nil {
		return fmt.Errorf("roster: reassign %s to %s: %w", playerID, teamID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roster: player %s: %w", playerID, auctionerrors.ErrPlayerNotFound)
	}
	return nil
}

// SeedPostgres inserts teams and players that do not exist yet
func SeedPostgres(ctx context.Context, db *pgxpool.Pool, teams map[string]int64, players map[string]string) error {
	batch := &pgx.Batch{}
	for team, balance := range teams {
		batch.Queue(`INSERT INTO teams (team_id, balance) VALUES ($1, $2) ON CONFLICT (team_id) DO NOTHING`,
			team, balance)
	}
	for player, team := range players {
		var owner *string
		if team != "" {
			owner = &team
		}
		batch.Queue(`INSERT INTO players (player_id, team_id) VALUES ($1, $2) ON CONFLICT (player_id) DO NOTHING`,
			player, owner)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed league data: %w", err)
	}
	return nil
}
