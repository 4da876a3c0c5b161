package auction

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
	"league-auction/internal/repository"
)

func TestAuctionService_PlaceBid(t *testing.T) {
	ctx := context.Background()
	balances := map[string]int64{"teamA": 5_000_000, "teamB": 5_000_000, "poor": 1_200_000}

	tests := []struct {
		name       string
		setup      func(t *testing.T, f *fixture) string
		teamID     string
		amount     int64
		wantErr    error
		wantMin    int64
		wantLeader string
		wantBid    int64
	}{
		{
			name:       "valid_first_bid",
			setup:      func(t *testing.T, f *fixture) string { return f.activeAuction(t, "p1", 1_000_000).AuctionID },
			teamID:     "teamA",
			amount:     1_500_000,
			wantLeader: "teamA",
			wantBid:    1_500_000,
		},
		{
			name:    "first_bid_at_start_price",
			setup:   func(t *testing.T, f *fixture) string { return f.activeAuction(t, "p1", 1_000_000).AuctionID },
			teamID:  "teamA",
			amount:  1_000_000,
			wantErr: auctionerrors.ErrBidTooLow,
			wantMin: 1_500_000,
			wantBid: 1_000_000,
		},
		{
			name: "below_increment",
			setup: func(t *testing.T, f *fixture) string {
				a := f.activeAuction(t, "p1", 1_000_000)
				_, err := f.svc.PlaceBid(ctx, a.AuctionID, "teamA", 2_000_000)
				require.NoError(t, err)
				return a.AuctionID
			},
			teamID:     "teamB",
			amount:     2_499_999,
			wantErr:    auctionerrors.ErrBidTooLow,
			wantMin:    2_500_000,
			wantLeader: "teamA",
			wantBid:    2_000_000,
		},
		{
			name: "already_leading",
			setup: func(t *testing.T, f *fixture) string {
				a := f.activeAuction(t, "p1", 1_000_000)
				_, err := f.svc.PlaceBid(ctx, a.AuctionID, "teamA", 2_000_000)
				require.NoError(t, err)
				return a.AuctionID
			},
			teamID:     "teamA",
			amount:     3_000_000,
			wantErr:    auctionerrors.ErrAlreadyLeading,
			wantLeader: "teamA",
			wantBid:    2_000_000,
		},
		{
			name:    "insufficient_balance",
			setup:   func(t *testing.T, f *fixture) string { return f.activeAuction(t, "p1", 1_000_000).AuctionID },
			teamID:  "poor",
			amount:  1_500_000,
			wantErr: auctionerrors.ErrInsufficientBalance,
			wantBid: 1_000_000,
		},
		{
			name: "pending_auction",
			setup: func(t *testing.T, f *fixture) string {
				a, err := f.svc.CreatePendingAuction(ctx, model.NewAuction{PlayerID: "p1", StartPrice: 1_000_000})
				require.NoError(t, err)
				return a.AuctionID
			},
			teamID:  "teamA",
			amount:  2_000_000,
			wantErr: auctionerrors.ErrClosedAuction,
			wantBid: 1_000_000,
		},
		{
			name:    "unknown_auction",
			setup:   func(t *testing.T, f *fixture) string { return "missing" },
			teamID:  "teamA",
			amount:  2_000_000,
			wantErr: auctionerrors.ErrClosedAuction,
		},
		{
			name:    "unknown_team",
			setup:   func(t *testing.T, f *fixture) string { return f.activeAuction(t, "p1", 1_000_000).AuctionID },
			teamID:  "ghost",
			amount:  2_000_000,
			wantErr: auctionerrors.ErrTeamNotFound,
			wantBid: 1_000_000,
		},
		{
			name:    "zero_amount",
			setup:   func(t *testing.T, f *fixture) string { return f.activeAuction(t, "p1", 1_000_000).AuctionID },
			teamID:  "teamA",
			amount:  0,
			wantErr: auctionerrors.ErrInvalidBid,
			wantBid: 1_000_000,
		},
		{
			name:    "empty_team",
			setup:   func(t *testing.T, f *fixture) string { return f.activeAuction(t, "p1", 1_000_000).AuctionID },
			teamID:  "",
			amount:  2_000_000,
			wantErr: auctionerrors.ErrInvalidBid,
			wantBid: 1_000_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, balances, map[string]string{"p1": ""})
			auctionID := tt.setup(t, f)

			res, err := f.svc.PlaceBid(ctx, auctionID, tt.teamID, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantMin > 0 {
					minimum, ok := auctionerrors.MinimumAcceptable(err)
					require.True(t, ok)
					require.Equal(t, tt.wantMin, minimum)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.amount, res.CurrentBid)
				require.Equal(t, tt.teamID, res.Bid.TeamID)
				require.NotEmpty(t, res.Bid.BidID)
			}

			if tt.wantBid == 0 {
				return
			}
			a, err := f.svc.GetAuction(ctx, auctionID)
			require.NoError(t, err)
			require.Equal(t, tt.wantBid, a.CurrentBid)
			require.Equal(t, tt.wantLeader, a.CurrentBidder)

			if tt.wantErr != nil && tt.teamID != "" && tt.teamID != tt.wantLeader {
				tb, err := f.svc.GetTeamBalance(ctx, tt.teamID)
				if err == nil {
					require.Zero(t, tb.Reserved, "rejected bid must not leave a reservation")
				}
			}
			require.NoError(t, f.svc.CheckInvariant())
		})
	}
}

func TestAuctionService_PlaceBid_OutbidReleasesAndReplaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"teamA": 10_000_000, "teamB": 10_000_000}, map[string]string{"p1": ""})
	a := f.activeAuction(t, "p1", 0)

	_, err := f.svc.PlaceBid(ctx, a.AuctionID, "teamA", 3_000_000)
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(ctx, a.AuctionID, "teamB", 4_000_000)
	require.NoError(t, err)

	tbA, err := f.svc.GetTeamBalance(ctx, "teamA")
	require.NoError(t, err)
	require.Zero(t, tbA.Reserved)

	// the new hold replaces, never adds to, an earlier one on the same auction
	_, err = f.svc.PlaceBid(ctx, a.AuctionID, "teamA", 9_000_000)
	require.NoError(t, err)
	tbA, err = f.svc.GetTeamBalance(ctx, "teamA")
	require.NoError(t, err)
	require.Equal(t, int64(9_000_000), tbA.Reserved)
	require.Equal(t, int64(1_000_000), tbA.Spendable)

	tbB, err := f.svc.GetTeamBalance(ctx, "teamB")
	require.NoError(t, err)
	require.Zero(t, tbB.Reserved)

	bids, err := f.svc.GetBids(ctx, a.AuctionID)
	require.NoError(t, err)
	require.Len(t, bids, 3)
	got, err := f.svc.GetAuction(ctx, a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, 3, got.BidCount)
}

func TestAuctionService_PlaceBid_SpendableAcrossAuctions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"teamA": 1_000_000}, map[string]string{"p1": "", "p2": ""},
		func(o *Options) { o.MinIncrement = 1 })
	x := f.activeAuction(t, "p1", 0)
	y := f.activeAuction(t, "p2", 0)

	_, err := f.svc.PlaceBid(ctx, x.AuctionID, "teamA", 600_000)
	require.NoError(t, err)

	_, err = f.svc.PlaceBid(ctx, y.AuctionID, "teamA", 500_000)
	require.ErrorIs(t, err, auctionerrors.ErrInsufficientBalance)

	_, err = f.svc.PlaceBid(ctx, y.AuctionID, "teamA", 400_000)
	require.NoError(t, err)

	tb, err := f.svc.GetTeamBalance(ctx, "teamA")
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), tb.Reserved)
	require.Zero(t, tb.Spendable)
}

func TestAuctionService_PlaceBid_ConcurrentSameAuction(t *testing.T) {
	ctx := context.Background()
	const teams = 25

	balances := make(map[string]int64, teams)
	for i := 0; i < teams; i++ {
		balances[fmt.Sprintf("team%02d", i)] = 1_000_000_000
	}
	f := newFixture(t, balances, map[string]string{"p1": ""}, func(o *Options) { o.MinIncrement = 1 })
	a := f.activeAuction(t, "p1", 1_000)

	var g errgroup.Group
	for i := 0; i < teams; i++ {
		team := fmt.Sprintf("team%02d", i)
		g.Go(func() error {
			for round := 1; round <= 20; round++ {
				_, err := f.svc.PlaceBid(ctx, a.AuctionID, team, int64(1_000+round*teams+i))
				switch {
				case err == nil,
					errors.Is(err, auctionerrors.ErrBidTooLow),
					errors.Is(err, auctionerrors.ErrAlreadyLeading):
				default:
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	bids, err := f.svc.GetBids(ctx, a.AuctionID)
	require.NoError(t, err)
	require.NotEmpty(t, bids)
	for i := 1; i < len(bids); i++ {
		require.Greater(t, bids[i].Amount, bids[i-1].Amount)
		require.False(t, bids[i].CreatedAt.Before(bids[i-1].CreatedAt))
		require.NotEqual(t, bids[i].TeamID, bids[i-1].TeamID)
	}

	got, err := f.svc.GetAuction(ctx, a.AuctionID)
	require.NoError(t, err)
	last := bids[len(bids)-1]
	require.Equal(t, last.TeamID, got.CurrentBidder)
	require.Equal(t, last.Amount, got.CurrentBid)
	require.Equal(t, len(bids), got.BidCount)

	// only the leader still holds funds on this auction
	for team := range balances {
		held := f.svc.escrow.Held(team, a.AuctionID)
		if team == got.CurrentBidder {
			require.Equal(t, got.CurrentBid, held)
		} else {
			require.Zero(t, held, team)
		}
	}
	require.NoError(t, f.svc.CheckInvariant())
}

func TestAuctionService_PlaceBid_OneTeamManyAuctions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		balance  int64
		auctions int
		wantWins int
	}{
		{name: "single_unit_of_balance", balance: 10_000_000, auctions: 20, wantWins: 1},
		{name: "three_units_of_balance", balance: 30_000_000, auctions: 20, wantWins: 3},
		{name: "three_and_a_half_units", balance: 35_000_000, auctions: 12, wantWins: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			players := make(map[string]string, tt.auctions)
			for i := 0; i < tt.auctions; i++ {
				players[fmt.Sprintf("p%d", i)] = ""
			}
			f := newFixture(t, map[string]int64{"greedy": tt.balance}, players)

			ids := make([]string, 0, tt.auctions)
			for i := 0; i < tt.auctions; i++ {
				ids = append(ids, f.activeAuction(t, fmt.Sprintf("p%d", i), 0).AuctionID)
			}

			var wins, rejected atomic.Int64
			var g errgroup.Group
			for _, id := range ids {
				g.Go(func() error {
					_, err := f.svc.PlaceBid(ctx, id, "greedy", 10_000_000)
					switch {
					case err == nil:
						wins.Add(1)
					case errors.Is(err, auctionerrors.ErrInsufficientBalance):
						rejected.Add(1)
					default:
						return err
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			require.Equal(t, int64(tt.wantWins), wins.Load())
			require.Equal(t, int64(tt.auctions-tt.wantWins), rejected.Load())

			tb, err := f.svc.GetTeamBalance(ctx, "greedy")
			require.NoError(t, err)
			require.LessOrEqual(t, tb.Reserved, tb.Balance)
			require.Equal(t, int64(tt.wantWins)*10_000_000, tb.Reserved)
			require.NoError(t, f.svc.CheckInvariant())
		})
	}
}

type failingCommitRepo struct {
	*repository.MemoryRepo
	err error
}

func (r *failingCommitRepo) CommitBid(context.Context, model.Auction, model.Bid) error {
	return r.err
}

func TestAuctionService_PlaceBid_CommitFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		commitErr  error
		wantErr    error
		wantStatus model.AuctionStatus
	}{
		{
			name:       "store_error",
			commitErr:  errors.New("disk full"),
			wantStatus: model.StatusActive,
		},
		{
			name:       "store_detects_non_increasing_bid",
			commitErr:  fmt.Errorf("commit: %w", auctionerrors.ErrInvariantViolation),
			wantErr:    auctionerrors.ErrInvariantViolation,
			wantStatus: model.StatusFinished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, map[string]int64{"teamA": 10_000_000, "teamB": 10_000_000}, map[string]string{"p1": ""})
			a := f.activeAuction(t, "p1", 0)
			_, err := f.svc.PlaceBid(ctx, a.AuctionID, "teamA", 1_000_000)
			require.NoError(t, err)

			f.svc.repo = &failingCommitRepo{MemoryRepo: f.repo, err: tt.commitErr}

			_, err = f.svc.PlaceBid(ctx, a.AuctionID, "teamB", 2_000_000)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}

			require.Zero(t, f.svc.escrow.Held("teamB", a.AuctionID))

			got, err := f.repo.GetAuction(ctx, a.AuctionID)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, got.Status)
			require.Equal(t, "teamA", got.CurrentBidder)
			require.Equal(t, int64(1_000_000), got.CurrentBid)

			bids, err := f.repo.GetBidsByAuction(ctx, a.AuctionID)
			require.NoError(t, err)
			require.Len(t, bids, 1)

			if tt.wantStatus == model.StatusFinished {
				require.True(t, got.Flagged)
				require.Zero(t, f.svc.escrow.Held("teamA", a.AuctionID))
				st, err := f.repo.GetSettlement(ctx, a.AuctionID)
				require.NoError(t, err)
				require.Equal(t, model.OutcomeFrozen, st.Outcome)
				require.False(t, st.Complete)
				require.Zero(t, f.src.Pending())
			} else {
				require.Equal(t, int64(1_000_000), f.svc.escrow.Held("teamA", a.AuctionID))
			}
		})
	}
}

func TestAuctionService_PlaceBid_AfterDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"teamA": 10_000_000}, map[string]string{"p1": ""})
	a := f.activeAuction(t, "p1", 0)

	f.src.Advance(testDuration + time.Second)

	_, err := f.svc.PlaceBid(ctx, a.AuctionID, "teamA", 1_000_000)
	require.ErrorIs(t, err, auctionerrors.ErrClosedAuction)

	st, err := f.svc.GetSettlement(ctx, a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, model.OutcomeUnsold, st.Outcome)
}
