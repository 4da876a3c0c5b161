package auction

import (
	"context"
	"errors"
	"fmt"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
	"league-auction/utils"
)

// Recover rebuilds in-memory state after a restart: every active auction gets
// its leader's reservation back and its deadline re-armed. Overdue auctions are
// settled right away, and an auction whose leader can no longer cover the
// winning bid is frozen.
func (s *AuctionService) Recover(ctx context.Context) (int, error) {
	active, err := s.repo.ListAuctions(ctx, model.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("service: failed to list active auctions: %w", err)
	}

	recovered := 0
	for _, a := range active {
		var loadErr error
		if a.HasBids() {
			if loadErr = s.escrow.Load(ctx, a.CurrentBidder); loadErr != nil && !errors.Is(loadErr, auctionerrors.ErrTeamNotFound) {
				return recovered, fmt.Errorf("service: recover auction %s: %w", a.AuctionID, loadErr)
			}
		}

		overdue, err := s.rearm(ctx, a.AuctionID, loadErr)
		if err != nil {
			return recovered, err
		}
		if overdue {
			if _, err := s.expire(ctx, a.AuctionID); err != nil {
				return recovered, err
			}
		}
		recovered++
	}

	utils.Info("active auctions recovered", map[string]any{"count": recovered})
	return recovered, nil
}

// rearm restores the leader's reservation and the deadline of one active auction.
// It reports whether the deadline already passed.
func (s *AuctionService) rearm(ctx context.Context, auctionID string, loadErr error) (bool, error) {
	unlock := s.lock(auctionID)
	defer unlock()

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return false, fmt.Errorf("service: recover auction %s: %w", auctionID, err)
	}
	if a.Status != model.StatusActive {
		return false, nil
	}

	if a.HasBids() {
		if loadErr != nil {
			s.freezeLocked(ctx, a, loadErr)
			return false, nil
		}
		if held := s.escrow.Held(a.CurrentBidder, auctionID); held != a.CurrentBid {
			if _, err := s.escrow.Reserve(a.CurrentBidder, auctionID, a.CurrentBid); err != nil {
				s.freezeLocked(ctx, a, err)
				return false, nil
			}
		}
	}

	if !s.clock.Now().Before(a.EndTime) {
		return true, nil
	}
	s.clock.Schedule(auctionID, a.EndTime)
	return false, nil
}

// SweepResult counts what one sweep changed
type SweepResult struct {
	Activated int `json:"activated"`
	Finalized int `json:"finalized"`
}

// Sweep activates pending auctions whose scheduled start has come and settles
// active auctions that are past their deadline without an armed timer.
func (s *AuctionService) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.clock.Now()

	pending, err := s.repo.ListAuctions(ctx, model.StatusPending)
	if err != nil {
		return res, fmt.Errorf("service: failed to list pending auctions: %w", err)
	}
	for _, a := range pending {
		if a.ScheduledAt.IsZero() || a.ScheduledAt.After(now) {
			continue
		}
		if _, err := s.Activate(ctx, a.AuctionID); err != nil {
			if errors.Is(err, auctionerrors.ErrNotPending) {
				continue
			}
			return res, err
		}
		res.Activated++
	}

	active, err := s.repo.ListAuctions(ctx, model.StatusActive)
	if err != nil {
		return res, fmt.Errorf("service: failed to list active auctions: %w", err)
	}
	for _, a := range active {
		if now.Before(a.EndTime) {
			continue
		}
		if _, armed := s.clock.Deadline(a.AuctionID); armed {
			continue
		}
		done, err := s.expire(ctx, a.AuctionID)
		if err != nil {
			return res, err
		}
		if done {
			res.Finalized++
		}
	}

	if res.Activated > 0 || res.Finalized > 0 {
		utils.Info("sweep completed", map[string]any{
			"activated": res.Activated,
			"finalized": res.Finalized,
		})
	}
	return res, nil
}
