package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
)

// PostgresRepo is the PostgreSQL implementation of AuctionDB
type PostgresRepo struct {
	db *pgxpool.Pool
}

// NewPostgresRepo creates a repository on top of an open pool
func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const auctionColumns = `auction_id, player_id, start_price, current_bid, current_bidder, status,
	scheduled_at, start_time, end_time, bid_count, extensions, flagged, flag_reason, created_at, updated_at`

// CreateAuction stores a new auction
func (r *PostgresRepo) CreateAuction(ctx context.Context, a model.Auction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO auctions (`+auctionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, a.AuctionID, a.PlayerID, a.StartPrice, a.CurrentBid, a.CurrentBidder, string(a.Status),
		nullTime(a.ScheduledAt), nullTime(a.StartTime), nullTime(a.EndTime),
		a.BidCount, a.Extensions, a.Flagged, a.FlagReason, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create auction %s: %w - player %s already has an open auction",
				a.AuctionID, auctionerrors.ErrInvalidPlayer, a.PlayerID)
		}
		return fmt.Errorf("create auction %s: %w", a.AuctionID, err)
	}
	return nil
}

// GetAuction returns the auction with the given ID
func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE auction_id = $1`, auctionID)
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListAuctions returns auctions with the given status, or all of them for an empty status
func (r *PostgresRepo) ListAuctions(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+auctionColumns+` FROM auctions
		WHERE $1 = '' OR status = $1
		ORDER BY created_at, auction_id
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	out := []model.Auction{}
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SwapAuction updates the auction only while its stored status equals expected
func (r *PostgresRepo) SwapAuction(ctx context.Context, a model.Auction, expected model.AuctionStatus) error {
	tag, err := r.db.Exec(ctx, updateAuctionSQL+` AND status = $13`, updateAuctionArgs(a, string(expected))...)
	if err != nil {
		return fmt.Errorf("swap auction %s: %w", a.AuctionID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetAuction(ctx, a.AuctionID); err != nil {
			return err
		}
		return fmt.Errorf("swap auction %s: expected %s: %w", a.AuctionID, expected, auctionerrors.ErrStatusConflict)
	}
	return nil
}

// CommitBid inserts the bid and updates the auction in one transaction
func (r *PostgresRepo) CommitBid(ctx context.Context, a model.Auction, bid model.Bid) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bid transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var highest int64
	err = tx.QueryRow(ctx, `
		SELECT a.status, COALESCE((SELECT MAX(amount) FROM auction_bids WHERE auction_id = a.auction_id), 0)
		FROM auctions a WHERE a.auction_id = $1 FOR UPDATE
	`, bid.AuctionID).Scan(&status, &highest)
	if errors.Is(err, pgx.ErrNoRows) || bid.AuctionID != a.AuctionID {
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock auction %s: %w", bid.AuctionID, err)
	}
	if model.AuctionStatus(status) != model.StatusActive {
		return fmt.Errorf("commit bid for auction %s: stored %s: %w", bid.AuctionID, status, auctionerrors.ErrStatusConflict)
	}
	if highest >= bid.Amount {
		return fmt.Errorf("commit bid for auction %s: %d does not exceed %d: %w",
			bid.AuctionID, bid.Amount, highest, auctionerrors.ErrInvariantViolation)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO auction_bids (bid_id, auction_id, team_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, bid.BidID, bid.AuctionID, bid.TeamID, bid.Amount, bid.CreatedAt); err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	if _, err := tx.Exec(ctx, updateAuctionSQL, updateAuctionArgs(a, "")[:12]...); err != nil {
		return fmt.Errorf("update auction %s: %w", a.AuctionID, err)
	}
	return tx.Commit(ctx)
}

// GetBidsByAuction returns all accepted bids for an auction in acceptance order
func (r *PostgresRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT bid_id, auction_id, team_id, amount, created_at
		FROM auction_bids WHERE auction_id = $1
		ORDER BY amount
	`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.TeamID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// RecordSettlement upserts the settlement of a concluded auction
func (r *PostgresRepo) RecordSettlement(ctx context.Context, s model.Settlement) error {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO auction_settlements
			(auction_id, player_id, winner_team_id, seller_team_id, amount, outcome, reason, released, complete, errors, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (auction_id) DO UPDATE SET
			seller_team_id = EXCLUDED.seller_team_id,
			complete = EXCLUDED.complete,
			errors = EXCLUDED.errors,
			settled_at = EXCLUDED.settled_at
	`, s.AuctionID, s.PlayerID, s.WinnerTeamID, s.SellerTeamID, s.Amount, s.Outcome, s.Reason,
		s.Released, s.Complete, errs, s.SettledAt)
	if err != nil {
		return fmt.Errorf("record settlement for auction %s: %w", s.AuctionID, err)
	}
	return nil
}

// GetSettlement returns the settlement of a concluded auction
func (r *PostgresRepo) GetSettlement(ctx context.Context, auctionID string) (model.Settlement, error) {
	var s model.Settlement
	err := r.db.QueryRow(ctx, `
		SELECT auction_id, player_id, winner_team_id, seller_team_id, amount, outcome, reason, released, complete, errors, settled_at
		FROM auction_settlements WHERE auction_id = $1
	`, auctionID).Scan(&s.AuctionID, &s.PlayerID, &s.WinnerTeamID, &s.SellerTeamID, &s.Amount,
		&s.Outcome, &s.Reason, &s.Released, &s.Complete, &s.Errors, &s.SettledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Settlement{}, fmt.Errorf("get settlement for auction %s: %w", auctionID, auctionerrors.ErrNoSettlement)
	}
	if err != nil {
		return model.Settlement{}, fmt.Errorf("get settlement for auction %s: %w", auctionID, err)
	}
	if len(s.Errors) == 0 {
		s.Errors = nil
	}
	return s, nil
}

const updateAuctionSQL = `
	UPDATE auctions SET
		current_bid = $2, current_bidder = $3, status = $4, scheduled_at = $5, start_time = $6,
		end_time = $7, bid_count = $8, extensions = $9, flagged = $10, flag_reason = $11, updated_at = $12
	WHERE auction_id = $1`

func updateAuctionArgs(a model.Auction, expected string) []any {
	return []any{
		a.AuctionID, a.CurrentBid, a.CurrentBidder, string(a.Status), nullTime(a.ScheduledAt),
		nullTime(a.StartTime), nullTime(a.EndTime), a.BidCount, a.Extensions, a.Flagged, a.FlagReason,
		a.UpdatedAt, expected,
	}
}

func scanAuction(row pgx.Row) (model.Auction, error) {
	var a model.Auction
	var status string
	var scheduledAt, startTime, endTime *time.Time
	err := row.Scan(&a.AuctionID, &a.PlayerID, &a.StartPrice, &a.CurrentBid, &a.CurrentBidder, &status,
		&scheduledAt, &startTime, &endTime, &a.BidCount, &a.Extensions, &a.Flagged, &a.FlagReason,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Auction{}, err
	}
	a.Status = model.AuctionStatus(status)
	a.ScheduledAt = derefTime(scheduledAt)
	a.StartTime = derefTime(startTime)
	a.EndTime = derefTime(endTime)
	return a, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
