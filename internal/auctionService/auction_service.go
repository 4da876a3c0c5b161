package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"league-auction/internal/auctionerrors"
	"league-auction/internal/clock"
	"league-auction/internal/escrow"
	model "league-auction/internal/models"
	"league-auction/internal/repository"
	"league-auction/utils"
)

// AuctionService is the auction engine: lifecycle transitions, bid acceptance,
// reservations and settlement.
//
// Lock order is auction lock, then a single team account inside the escrow
// table. The deadline clock never holds its own lock while calling back in.
type AuctionService struct {
	repo   repository.AuctionDB
	deps   Dependencies
	opts   Options
	escrow *escrow.Table
	clock  *clock.Clock

	// background context for timer-driven finalization
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	locks map[string]*sync.Mutex // key: auctionID

	// serializes the one-open-auction-per-player check with the insert
	createMu sync.Mutex
}

// NewAuctionService creates a new engine instance
func NewAuctionService(repo repository.AuctionDB, deps Dependencies, opts Options) *AuctionService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &AuctionService{
		repo:   repo,
		deps:   deps,
		opts:   opts.withDefaults(),
		ctx:    ctx,
		cancel: cancel,
		locks:  make(map[string]*sync.Mutex),
	}
	s.escrow = escrow.NewTable(deps.Ledger)
	s.clock = clock.New(s.opts.Clock, s.onDeadline)
	return s
}

// Close stops every pending deadline timer
func (s *AuctionService) Close() {
	s.clock.Stop()
	s.cancel()
}

func (s *AuctionService) lock(auctionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[auctionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[auctionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CreatePendingAuction registers a new auction for a player in pending state
func (s *AuctionService) CreatePendingAuction(ctx context.Context, in model.NewAuction) (model.Auction, error) {
	if in.PlayerID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty player ID", auctionerrors.ErrInvalidPlayer)
	}
	if in.StartPrice < 0 {
		return model.Auction{}, fmt.Errorf("service: %w - negative start price", auctionerrors.ErrInvalidAuction)
	}

	exists, err := s.deps.Players.PlayerExists(ctx, in.PlayerID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to look up player %s: %w", in.PlayerID, err)
	}
	if !exists {
		return model.Auction{}, fmt.Errorf("service: %w - unknown player %s", auctionerrors.ErrInvalidPlayer, in.PlayerID)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	for _, status := range []model.AuctionStatus{model.StatusPending, model.StatusActive} {
		open, err := s.repo.ListAuctions(ctx, status)
		if err != nil {
			return model.Auction{}, fmt.Errorf("service: failed to list %s auctions: %w", status, err)
		}
		for _, a := range open {
			if a.PlayerID == in.PlayerID {
				return model.Auction{}, fmt.Errorf("service: %w - player %s is already in auction %s",
					auctionerrors.ErrInvalidPlayer, in.PlayerID, a.AuctionID)
			}
		}
	}

	now := s.clock.Now()
	a := model.Auction{
		AuctionID:   utils.GenerateID(),
		PlayerID:    in.PlayerID,
		StartPrice:  in.StartPrice,
		CurrentBid:  in.StartPrice,
		Status:      model.StatusPending,
		ScheduledAt: in.ScheduledAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateAuction(ctx, a); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction for player %s: %w", in.PlayerID, err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id":  a.AuctionID,
		"player_id":   a.PlayerID,
		"start_price": a.StartPrice,
	})
	return a, nil
}

// Activate opens a pending auction for bidding and arms its deadline.
// A second call fails with ErrNotPending and leaves the running deadline untouched.
func (s *AuctionService) Activate(ctx context.Context, auctionID string) (model.Auction, error) {
	unlock := s.lock(auctionID)
	defer unlock()

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	if a.Status != model.StatusPending {
		return model.Auction{}, fmt.Errorf("service: %w - auction %s is %s", auctionerrors.ErrNotPending, auctionID, a.Status)
	}

	now := s.clock.Now()
	a.Status = model.StatusActive
	a.StartTime = now
	a.EndTime = now.Add(s.opts.Duration)
	a.UpdatedAt = now
	if err := s.repo.SwapAuction(ctx, a, model.StatusPending); err != nil {
		if errors.Is(err, auctionerrors.ErrStatusConflict) {
			return model.Auction{}, fmt.Errorf("service: %w - %w", auctionerrors.ErrNotPending, err)
		}
		return model.Auction{}, fmt.Errorf("service: failed to activate auction %s: %w", auctionID, err)
	}
	s.clock.Schedule(auctionID, a.EndTime)

	utils.Info("auction activated", map[string]any{
		"auction_id": auctionID,
		"player_id":  a.PlayerID,
		"end_time":   a.EndTime,
	})
	return a, nil
}

// Cancel ends a pending or active auction without a sale and releases every reservation on it
func (s *AuctionService) Cancel(ctx context.Context, auctionID string) (model.Settlement, error) {
	unlock := s.lock(auctionID)

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		unlock()
		return model.Settlement{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	if a.Status != model.StatusPending && a.Status != model.StatusActive {
		unlock()
		return model.Settlement{}, fmt.Errorf("service: %w - auction %s is %s",
			auctionerrors.ErrNotCancellable, auctionID, a.Status)
	}

	prev := a.Status
	a.Status = model.StatusCancelled
	a.UpdatedAt = s.clock.Now()
	if err := s.repo.SwapAuction(ctx, a, prev); err != nil {
		unlock()
		if errors.Is(err, auctionerrors.ErrStatusConflict) {
			return model.Settlement{}, fmt.Errorf("service: %w - %w", auctionerrors.ErrNotCancellable, err)
		}
		return model.Settlement{}, fmt.Errorf("service: failed to cancel auction %s: %w", auctionID, err)
	}
	s.clock.Cancel(auctionID)
	released := s.escrow.ReleaseAuction(auctionID, "")
	unlock()

	utils.Info("auction cancelled", map[string]any{
		"auction_id": auctionID,
		"previous":   string(prev),
		"released":   len(released),
	})

	st := model.Settlement{
		AuctionID: a.AuctionID,
		PlayerID:  a.PlayerID,
		Outcome:   model.OutcomeCancelled,
		Reason:    reasonCancelled,
		Released:  len(released),
		Complete:  true,
		SettledAt: s.clock.Now(),
	}
	s.record(ctx, st)
	s.notify(ctx, st)
	return st, nil
}

// ForceFinish closes an active auction now and settles it as if its deadline had passed
func (s *AuctionService) ForceFinish(ctx context.Context, auctionID string) (model.Settlement, error) {
	unlock := s.lock(auctionID)

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		unlock()
		return model.Settlement{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	if a.Status != model.StatusActive {
		unlock()
		return model.Settlement{}, fmt.Errorf("service: %w - auction %s is %s", auctionerrors.ErrNotActive, auctionID, a.Status)
	}

	done, released, err := s.finishLocked(ctx, a)
	unlock()
	if err != nil {
		if errors.Is(err, auctionerrors.ErrStatusConflict) {
			return model.Settlement{}, fmt.Errorf("service: %w - %w", auctionerrors.ErrNotActive, err)
		}
		return model.Settlement{}, err
	}
	return s.settle(ctx, done, released, reasonForced), nil
}

// GetAuction returns one auction
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}
	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListAuctions returns auctions in the given status, or every auction for an empty status
func (s *AuctionService) ListAuctions(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("service: %w - unknown status %q", auctionerrors.ErrInvalidAuction, status)
	}
	auctions, err := s.repo.ListAuctions(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// GetBids returns the accepted bids of an auction in acceptance order
func (s *AuctionService) GetBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}
	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetSettlement returns how a concluded auction was resolved
func (s *AuctionService) GetSettlement(ctx context.Context, auctionID string) (model.Settlement, error) {
	st, err := s.repo.GetSettlement(ctx, auctionID)
	if err != nil {
		return model.Settlement{}, fmt.Errorf("service: failed to get settlement for auction %s: %w", auctionID, err)
	}
	return st, nil
}

// GetTeamBalance returns the team's cached balance, reservations and spendable amount
func (s *AuctionService) GetTeamBalance(ctx context.Context, teamID string) (model.TeamBalance, error) {
	if err := s.escrow.Load(ctx, teamID); err != nil {
		return model.TeamBalance{}, fmt.Errorf("service: %w", err)
	}
	tb, err := s.escrow.Snapshot(teamID)
	if err != nil {
		return model.TeamBalance{}, fmt.Errorf("service: %w", err)
	}
	return tb, nil
}

// RefreshBalance reloads the team's ledger balance into the cached view
func (s *AuctionService) RefreshBalance(ctx context.Context, teamID string) (model.TeamBalance, error) {
	if teamID == "" {
		return model.TeamBalance{}, fmt.Errorf("service: %w - empty team ID", auctionerrors.ErrTeamNotFound)
	}
	tb, err := s.escrow.Refresh(ctx, teamID)
	if err != nil {
		return model.TeamBalance{}, fmt.Errorf("service: %w", err)
	}
	if tb.Spendable >= 0 {
		return tb, nil
	}

	utils.Error("refreshed balance no longer covers reservations", map[string]any{
		"team_id":  teamID,
		"balance":  tb.Balance,
		"reserved": tb.Reserved,
		"alert":    true,
	})
	frozen := s.freezeShortfall(ctx, teamID)
	tb, err = s.escrow.Snapshot(teamID)
	if err != nil {
		return model.TeamBalance{}, fmt.Errorf("service: %w", err)
	}
	utils.Warn("team shortfall resolved by freezing its auctions", map[string]any{
		"team_id":   teamID,
		"frozen":    frozen,
		"spendable": tb.Spendable,
	})
	return tb, nil
}

// CheckInvariant reports a team whose reservations exceed its cached balance
func (s *AuctionService) CheckInvariant() error {
	return s.escrow.CheckInvariant()
}
