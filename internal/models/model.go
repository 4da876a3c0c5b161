package models

import "time"

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	StatusPending   AuctionStatus = "pending"
	StatusActive    AuctionStatus = "active"
	StatusFinished  AuctionStatus = "finished"
	StatusCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s
func (s AuctionStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Valid reports whether s is one of the known statuses
func (s AuctionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

// Auction represents the sale of a single player
type Auction struct {
	AuctionID     string        `json:"auction_id"`
	PlayerID      string        `json:"player_id"`
	StartPrice    int64         `json:"start_price"`
	CurrentBid    int64         `json:"current_bid"`
	CurrentBidder string        `json:"current_bidder,omitempty"`
	Status        AuctionStatus `json:"status"`
	ScheduledAt   time.Time     `json:"scheduled_at,omitempty"`
	StartTime     time.Time     `json:"start_time,omitempty"`
	EndTime       time.Time     `json:"end_time,omitempty"`
	BidCount      int           `json:"bid_count"`
	Extensions    int           `json:"extensions"`
	Flagged       bool          `json:"flagged"`
	FlagReason    string        `json:"flag_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// HasBids reports whether at least one bid was accepted
func (a Auction) HasBids() bool {
	return a.CurrentBidder != ""
}

// MinimumNextBid returns the lowest amount the next bid may carry
func (a Auction) MinimumNextBid(increment int64) int64 {
	return a.CurrentBid + increment
}

// Bid is an accepted bid. Rejected attempts are never stored.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	TeamID    string    `json:"team_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Reservation is the amount held back from a team's spendable balance for one auction
type Reservation struct {
	TeamID    string `json:"team_id"`
	AuctionID string `json:"auction_id"`
	Amount    int64  `json:"amount"`
}

// TeamBalance is the engine's view of a team's funds
type TeamBalance struct {
	TeamID       string        `json:"team_id"`
	Balance      int64         `json:"balance"`
	Reserved     int64         `json:"reserved"`
	Spendable    int64         `json:"spendable"`
	Reservations []Reservation `json:"reservations"`
}

// Settlement outcomes
const (
	OutcomeSold      = "sold"
	OutcomeUnsold    = "unsold"
	OutcomeCancelled = "cancelled"
	OutcomeFrozen    = "frozen"
)

// Settlement records how a concluded auction was resolved
type Settlement struct {
	AuctionID    string    `json:"auction_id"`
	PlayerID     string    `json:"player_id"`
	WinnerTeamID string    `json:"winner_team_id,omitempty"`
	SellerTeamID string    `json:"seller_team_id,omitempty"`
	Amount       int64     `json:"amount"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason"`
	Released     int       `json:"released_reservations"`
	Complete     bool      `json:"complete"`
	Errors       []string  `json:"errors,omitempty"`
	SettledAt    time.Time `json:"settled_at"`
}

// NewAuction carries the input of an auction creation
type NewAuction struct {
	PlayerID    string
	StartPrice  int64
	ScheduledAt time.Time
}

// BidResult is returned for an accepted bid
type BidResult struct {
	Bid        Bid       `json:"bid"`
	CurrentBid int64     `json:"current_bid"`
	EndTime    time.Time `json:"end_time"`
	Extended   bool      `json:"extended"`
}
