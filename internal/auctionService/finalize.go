package auction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
	"league-auction/utils"
)

// Settlement reasons
const (
	reasonDeadline  = "deadline"
	reasonForced    = "force_finish"
	reasonCancelled = "cancelled"
	reasonFrozen    = "invariant_violation"
)

// onDeadline is the clock callback. It may run after the auction was already
// cancelled, force-finished or extended; those cases are no-ops.
func (s *AuctionService) onDeadline(auctionID string) {
	if _, err := s.expire(s.ctx, auctionID); err != nil {
		utils.Error("deadline finalization failed", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
}

// expire finishes and settles the auction if it is active and its deadline has passed.
// It reports whether this call concluded the auction.
func (s *AuctionService) expire(ctx context.Context, auctionID string) (bool, error) {
	unlock := s.lock(auctionID)

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		unlock()
		return false, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	if a.Status != model.StatusActive {
		unlock()
		utils.Debug("stale deadline ignored", map[string]any{"auction_id": auctionID, "status": string(a.Status)})
		return false, nil
	}
	if s.clock.Now().Before(a.EndTime) {
		s.clock.Schedule(auctionID, a.EndTime)
		unlock()
		return false, nil
	}

	done, released, err := s.finishLocked(ctx, a)
	unlock()
	if err != nil {
		if errors.Is(err, auctionerrors.ErrStatusConflict) {
			return false, nil
		}
		return false, err
	}
	s.settle(ctx, done, released, reasonDeadline)
	return true, nil
}

// finishLocked performs the active -> finished compare-and-set. Only the caller
// that wins it may settle. Every losing bidder's reservation is released; the
// winner's stays held until the ledger debit succeeds.
func (s *AuctionService) finishLocked(ctx context.Context, a model.Auction) (model.Auction, []model.Reservation, error) {
	done := a
	done.Status = model.StatusFinished
	done.UpdatedAt = s.clock.Now()
	if err := s.repo.SwapAuction(ctx, done, model.StatusActive); err != nil {
		return model.Auction{}, nil, fmt.Errorf("service: failed to finish auction %s: %w", a.AuctionID, err)
	}
	s.clock.Cancel(a.AuctionID)
	released := s.escrow.ReleaseAuction(a.AuctionID, a.CurrentBidder)

	utils.Info("auction finished", map[string]any{
		"auction_id":     a.AuctionID,
		"winner_team_id": a.CurrentBidder,
		"amount":         a.CurrentBid,
		"released":       len(released),
	})
	return done, released, nil
}

// settle runs the external side of a finished auction. No engine lock is held.
func (s *AuctionService) settle(ctx context.Context, a model.Auction, released []model.Reservation, reason string) model.Settlement {
	st := model.Settlement{
		AuctionID: a.AuctionID,
		PlayerID:  a.PlayerID,
		Reason:    reason,
		Released:  len(released),
		SettledAt: s.clock.Now(),
	}

	if !a.HasBids() {
		st.Outcome = model.OutcomeUnsold
		st.Complete = true
		s.record(ctx, st)
		s.notify(ctx, st)
		return st
	}

	st.WinnerTeamID = a.CurrentBidder
	st.Amount = a.CurrentBid

	if held := s.escrow.Held(a.CurrentBidder, a.AuctionID); held != a.CurrentBid {
		// the winner must hold exactly the winning bid; charging anything else would break the ledger
		s.escrow.Release(a.CurrentBidder, a.AuctionID)
		st.Outcome = model.OutcomeFrozen
		st.Errors = []string{fmt.Sprintf("winner %s holds %d, winning bid is %d: %s",
			a.CurrentBidder, held, a.CurrentBid, auctionerrors.ErrInvariantViolation)}
		s.alert(a.AuctionID, st.Errors[0])
	} else {
		st.Outcome = model.OutcomeSold
		st.SellerTeamID, st.Errors = s.charge(ctx, a)
	}
	st.Complete = len(st.Errors) == 0

	s.record(ctx, st)
	if !st.Complete {
		s.flag(ctx, a.AuctionID, strings.Join(st.Errors, "; "))
	}
	s.notify(ctx, st)
	return st
}

// charge debits the winner, pays the seller and moves the player. A failed
// debit stops the sale and leaves the winner's reservation held.
func (s *AuctionService) charge(ctx context.Context, a model.Auction) (string, []string) {
	winner, amount := a.CurrentBidder, a.CurrentBid
	fields := map[string]any{
		"auction_id": a.AuctionID,
		"team_id":    winner,
		"player_id":  a.PlayerID,
		"amount":     amount,
	}

	if err := s.retry(ctx, "debit winner", fields, func() error {
		return s.deps.Ledger.Debit(ctx, winner, amount)
	}); err != nil {
		return "", []string{fmt.Sprintf("debit %s: %v", winner, err)}
	}

	var errs []string
	if err := s.escrow.Consume(winner, a.AuctionID, amount); err != nil {
		errs = append(errs, err.Error())
		s.alert(a.AuctionID, err.Error())
	}

	var seller string
	if err := s.retry(ctx, "credit seller", fields, func() error {
		var err error
		seller, err = s.deps.Transfers.CreditSeller(ctx, a.PlayerID, amount)
		return err
	}); err != nil {
		errs = append(errs, fmt.Sprintf("credit seller: %v", err))
	} else if seller != "" {
		s.escrow.Credit(seller, amount)
	}

	if err := s.retry(ctx, "reassign player", fields, func() error {
		return s.deps.Ownership.ReassignPlayer(ctx, a.PlayerID, winner)
	}); err != nil {
		errs = append(errs, fmt.Sprintf("reassign %s: %v", a.PlayerID, err))
	}
	return seller, errs
}

// retry calls fn up to SettlementRetries times with exponential backoff
func (s *AuctionService) retry(ctx context.Context, op string, fields map[string]any, fn func() error) error {
	backoff := s.opts.SettlementBackoff
	var err error
	for attempt := 1; attempt <= s.opts.SettlementRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		logFields := map[string]any{"op": op, "attempt": attempt, "error": err.Error()}
		for k, v := range fields {
			logFields[k] = v
		}
		utils.Warn("settlement step failed", logFields)

		if attempt == s.opts.SettlementRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w (last error: %v)", op, ctx.Err(), err)
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", op, s.opts.SettlementRetries, err)
}

// freezeLocked stops an auction whose bookkeeping can no longer be trusted:
// it is finished and flagged without a sale and all of its reservations are dropped.
func (s *AuctionService) freezeLocked(ctx context.Context, a model.Auction, cause error) model.Settlement {
	frozen := a
	frozen.Status = model.StatusFinished
	frozen.Flagged = true
	frozen.FlagReason = cause.Error()
	frozen.UpdatedAt = s.clock.Now()
	if err := s.repo.SwapAuction(ctx, frozen, a.Status); err != nil {
		utils.Error("failed to store frozen auction", map[string]any{
			"auction_id": a.AuctionID,
			"error":      err.Error(),
			"alert":      true,
		})
	}
	s.clock.Cancel(a.AuctionID)
	released := s.escrow.ReleaseAuction(a.AuctionID, "")
	s.alert(a.AuctionID, cause.Error())

	st := model.Settlement{
		AuctionID:    a.AuctionID,
		PlayerID:     a.PlayerID,
		WinnerTeamID: a.CurrentBidder,
		Amount:       a.CurrentBid,
		Outcome:      model.OutcomeFrozen,
		Reason:       reasonFrozen,
		Released:     len(released),
		Errors:       []string{cause.Error()},
		SettledAt:    frozen.UpdatedAt,
	}
	s.record(ctx, st)
	return st
}

// freezeShortfall freezes the team's active auctions, largest hold first,
// until its cached balance covers the holds it has left. Other teams'
// reservations on those auctions are released with them.
func (s *AuctionService) freezeShortfall(ctx context.Context, teamID string) []string {
	tb, err := s.escrow.Snapshot(teamID)
	if err != nil || tb.Spendable >= 0 {
		return nil
	}
	holds := tb.Reservations
	sort.SliceStable(holds, func(i, j int) bool { return holds[i].Amount > holds[j].Amount })

	var frozen []string
	for _, r := range holds {
		if s.freezeHold(ctx, teamID, r.AuctionID) {
			frozen = append(frozen, r.AuctionID)
		}
	}
	return frozen
}

// freezeHold freezes auctionID if the team is still short and still holds on it.
// Auctions already past active are left to their settlement.
func (s *AuctionService) freezeHold(ctx context.Context, teamID, auctionID string) bool {
	unlock := s.lock(auctionID)
	defer unlock()

	tb, err := s.escrow.Snapshot(teamID)
	if err != nil || tb.Spendable >= 0 || s.escrow.Held(teamID, auctionID) == 0 {
		return false
	}
	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil || a.Status != model.StatusActive {
		return false
	}

	cause := fmt.Errorf("team %s holds %d over balance %d: %w",
		teamID, tb.Reserved, tb.Balance, auctionerrors.ErrInvariantViolation)
	s.freezeLocked(ctx, a, cause)
	return true
}

// flag marks a concluded auction for operator attention
func (s *AuctionService) flag(ctx context.Context, auctionID, reason string) {
	unlock := s.lock(auctionID)
	defer unlock()

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err == nil {
		a.Flagged = true
		a.FlagReason = reason
		a.UpdatedAt = s.clock.Now()
		err = s.repo.SwapAuction(ctx, a, a.Status)
	}
	if err != nil {
		utils.Error("failed to flag auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
	}
}

func (s *AuctionService) record(ctx context.Context, st model.Settlement) {
	if err := s.repo.RecordSettlement(ctx, st); err != nil {
		utils.Error("failed to record settlement", map[string]any{
			"auction_id": st.AuctionID,
			"outcome":    st.Outcome,
			"error":      err.Error(),
		})
		return
	}
	utils.Info("auction settled", map[string]any{
		"auction_id":     st.AuctionID,
		"outcome":        st.Outcome,
		"winner_team_id": st.WinnerTeamID,
		"amount":         st.Amount,
		"complete":       st.Complete,
	})
}

func (s *AuctionService) notify(ctx context.Context, st model.Settlement) {
	winner := ""
	if st.Outcome == model.OutcomeSold {
		winner = st.WinnerTeamID
	}
	amount := int64(0)
	if winner != "" {
		amount = st.Amount
	}
	if err := s.deps.Notifier.EmitSettlement(ctx, st.AuctionID, winner, amount); err != nil {
		utils.Warn("settlement notification failed", map[string]any{
			"auction_id": st.AuctionID,
			"error":      err.Error(),
		})
	}
}

func (s *AuctionService) alert(auctionID, reason string) {
	utils.Error("auction invariant violated", map[string]any{
		"auction_id": auctionID,
		"reason":     reason,
		"alert":      true,
	})
}
