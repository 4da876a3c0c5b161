package perftests

import (
	"context"
	"fmt"
	"testing"
	"time"

	auction "league-auction/internal/auctionService"
	"league-auction/internal/league"
	model "league-auction/internal/models"
	"league-auction/internal/repository"
)

// benchBalance is large enough that no benchmark team runs out of money
const benchBalance = int64(1) << 50

// setupService creates an engine with numTeams funded teams and numAuctions active auctions
func setupService(tb testing.TB, numTeams, numAuctions int) (*auction.AuctionService, []string, []string) {
	tb.Helper()
	ctx := context.Background()

	balances := make(map[string]int64, numTeams)
	teams := make([]string, 0, numTeams)
	for i := 0; i < numTeams; i++ {
		id := fmt.Sprintf("team_%d", i)
		balances[id] = benchBalance
		teams = append(teams, id)
	}
	players := make(map[string]string, numAuctions)
	for i := 0; i < numAuctions; i++ {
		players[fmt.Sprintf("player_%d", i)] = ""
	}

	ledger := league.NewMemoryLedger(balances)
	roster := league.NewMemoryRoster(players)
	svc := auction.NewAuctionService(repository.NewMemoryRepo(), auction.Dependencies{
		Ledger:    ledger,
		Players:   roster,
		Ownership: roster,
		Transfers: league.NewSellerTransfers(roster, ledger),
		Notifier:  league.LogNotifier{},
	}, auction.Options{
		Duration:          time.Hour,
		MinIncrement:      1,
		SettlementRetries: 1,
	})
	tb.Cleanup(svc.Close)

	auctions := make([]string, 0, numAuctions)
	for i := 0; i < numAuctions; i++ {
		a, err := svc.CreatePendingAuction(ctx, model.NewAuction{PlayerID: fmt.Sprintf("player_%d", i), StartPrice: 100})
		if err != nil {
			tb.Fatalf("create auction: %v", err)
		}
		if _, err := svc.Activate(ctx, a.AuctionID); err != nil {
			tb.Fatalf("activate auction: %v", err)
		}
		auctions = append(auctions, a.AuctionID)
	}
	return svc, teams, auctions
}
