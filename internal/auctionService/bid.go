package auction

import (
	"context"
	"errors"
	"fmt"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
	"league-auction/utils"
)

// PlaceBid validates and records a team's bid on an active auction.
//
// The bid is accepted only if the auction is open, the amount clears the
// current bid by the minimum increment, the team is not already leading and
// its spendable balance covers the amount. On success the team's reservation
// is set to the amount, the previous leader's reservation is released, and a
// bid landing inside the snipe window pushes the deadline out. A rejected bid
// leaves nothing behind.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, teamID string, amount int64) (model.BidResult, error) {
	if auctionID == "" || teamID == "" {
		return model.BidResult{}, fmt.Errorf("service: %w - missing auctionID or teamID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return model.BidResult{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	// ledger I/O happens here, before any lock is taken
	if err := s.escrow.Load(ctx, teamID); err != nil {
		return model.BidResult{}, fmt.Errorf("service: %w", err)
	}

	unlock := s.lock(auctionID)
	defer unlock()

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
			return model.BidResult{}, fmt.Errorf("service: %w - %w", auctionerrors.ErrClosedAuction, err)
		}
		return model.BidResult{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}

	now := s.clock.Now()
	if a.Status != model.StatusActive {
		return model.BidResult{}, fmt.Errorf("service: %w - auction %s is %s", auctionerrors.ErrClosedAuction, auctionID, a.Status)
	}
	if !now.Before(a.EndTime) {
		return model.BidResult{}, fmt.Errorf("service: %w - auction %s ended at %s",
			auctionerrors.ErrClosedAuction, auctionID, a.EndTime.Format("2006-01-02T15:04:05.000Z07:00"))
	}
	if minimum := a.MinimumNextBid(s.opts.MinIncrement); amount < minimum {
		return model.BidResult{}, fmt.Errorf("service: %w", &auctionerrors.BidTooLowError{Minimum: minimum})
	}
	if teamID == a.CurrentBidder {
		return model.BidResult{}, fmt.Errorf("service: %w - team %s", auctionerrors.ErrAlreadyLeading, teamID)
	}

	// a team already holding more than its balance is refused here; its own
	// auctions are dealt with when the shortfall is found by RefreshBalance
	prevHold, err := s.escrow.Reserve(teamID, auctionID, amount)
	if err != nil {
		return model.BidResult{}, fmt.Errorf("service: %w", err)
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		TeamID:    teamID,
		Amount:    amount,
		CreatedAt: now,
	}
	next := a
	next.CurrentBid = amount
	next.CurrentBidder = teamID
	next.BidCount++
	next.UpdatedAt = now
	extended := a.EndTime.Sub(now) <= s.opts.SnipeWindow && s.opts.SnipeExtension > 0
	if extended {
		next.EndTime = a.EndTime.Add(s.opts.SnipeExtension)
		next.Extensions++
	}

	if err := s.repo.CommitBid(ctx, next, bid); err != nil {
		s.escrow.Restore(teamID, auctionID, prevHold)
		if errors.Is(err, auctionerrors.ErrInvariantViolation) {
			s.freezeLocked(ctx, a, err)
		}
		return model.BidResult{}, fmt.Errorf("service: failed to record bid on auction %s by team %s: %w", auctionID, teamID, err)
	}

	if a.CurrentBidder != "" {
		s.escrow.Release(a.CurrentBidder, auctionID)
	}
	if extended {
		s.clock.Schedule(auctionID, next.EndTime)
	}

	fields := map[string]any{
		"auction_id": auctionID,
		"team_id":    teamID,
		"amount":     amount,
		"bid_id":     bid.BidID,
	}
	if a.CurrentBidder != "" {
		fields["outbid_team_id"] = a.CurrentBidder
	}
	utils.Info("bid accepted", fields)
	if extended {
		utils.Info("auction deadline extended", map[string]any{
			"auction_id": auctionID,
			"end_time":   next.EndTime,
			"extensions": next.Extensions,
		})
	}

	return model.BidResult{
		Bid:        bid,
		CurrentBid: next.CurrentBid,
		EndTime:    next.EndTime,
		Extended:   extended,
	}, nil
}
