package auction

import (
	"context"
	"time"

	"league-auction/internal/clock"
	"league-auction/internal/config"
)

//go:generate mockgen -source=collaborators.go -destination=mock_collaborators.go -package=auction

// Ledger holds each team's total balance. The engine reads it to fill its
// cached view and debits it once per sold auction.
type Ledger interface {
	GetBalance(ctx context.Context, teamID string) (int64, error)
	Debit(ctx context.Context, teamID string, amount int64) error
}

// PlayerDirectory answers whether a player can be put up for auction
type PlayerDirectory interface {
	PlayerExists(ctx context.Context, playerID string) (bool, error)
}

// Ownership moves a sold player to the winning team
type Ownership interface {
	ReassignPlayer(ctx context.Context, playerID, teamID string) error
}

// Transfers pays the selling side. It returns the credited team, or "" when nobody was paid.
type Transfers interface {
	CreditSeller(ctx context.Context, playerID string, amount int64) (string, error)
}

// Notifier receives settlement events. Failures are logged and never retried.
type Notifier interface {
	EmitSettlement(ctx context.Context, auctionID, winnerTeamID string, amount int64) error
}

// Dependencies groups the collaborators the engine calls out to
type Dependencies struct {
	Ledger    Ledger
	Players   PlayerDirectory
	Ownership Ownership
	Transfers Transfers
	Notifier  Notifier
}

// Options are the auction rules and timing knobs
type Options struct {
	Duration          time.Duration
	MinIncrement      int64
	SnipeWindow       time.Duration
	SnipeExtension    time.Duration
	SettlementRetries int
	SettlementBackoff time.Duration
	Clock             clock.Source
}

// OptionsFromConfig maps the process configuration onto engine options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Duration:          cfg.AuctionDuration,
		MinIncrement:      cfg.MinIncrement,
		SnipeWindow:       cfg.SnipeWindow,
		SnipeExtension:    cfg.SnipeExtension,
		SettlementRetries: cfg.SettlementRetries,
		SettlementBackoff: cfg.SettlementBackoff,
		Clock:             clock.System{},
	}
}

func (o Options) withDefaults() Options {
	if o.Duration <= 0 {
		o.Duration = 5 * time.Minute
	}
	if o.MinIncrement < 1 {
		o.MinIncrement = 1
	}
	if o.SnipeWindow < 0 {
		o.SnipeWindow = 0
	}
	if o.SnipeExtension < 0 {
		o.SnipeExtension = 0
	}
	if o.SettlementRetries < 1 {
		o.SettlementRetries = 1
	}
	if o.SettlementBackoff < 0 {
		o.SettlementBackoff = 0
	}
	if o.Clock == nil {
		o.Clock = clock.System{}
	}
	return o
}
