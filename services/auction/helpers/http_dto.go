package helpers

import (
	"time"

	model "league-auction/internal/models"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	PlayerID    string     `json:"player_id" binding:"required"`
	StartPrice  int64      `json:"start_price" binding:"gte=0"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type PlaceBidRequest struct {
	TeamID string `json:"team_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

type AuctionResponse struct {
	AuctionID     string `json:"auction_id"`
	PlayerID      string `json:"player_id"`
	StartPrice    int64  `json:"start_price"`
	CurrentBid    int64  `json:"current_bid"`
	CurrentBidder string `json:"current_bidder,omitempty"`
	Status        string `json:"status"`
	ScheduledAt   string `json:"scheduled_at,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	BidCount      int    `json:"bid_count"`
	Extensions    int    `json:"extensions"`
	Flagged       bool   `json:"flagged"`
	FlagReason    string `json:"flag_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	TeamID    string `json:"team_id"`
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type BidAcceptedResponse struct {
	BidResponse
	CurrentBid int64  `json:"current_bid"`
	EndTime    string `json:"end_time"`
	Extended   bool   `json:"extended"`
}

// FormatTime renders t as RFC3339 in UTC, or "" for the zero time
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func NewAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:     a.AuctionID,
		PlayerID:      a.PlayerID,
		StartPrice:    a.StartPrice,
		CurrentBid:    a.CurrentBid,
		CurrentBidder: a.CurrentBidder,
		Status:        string(a.Status),
		ScheduledAt:   FormatTime(a.ScheduledAt),
		StartTime:     FormatTime(a.StartTime),
		EndTime:       FormatTime(a.EndTime),
		BidCount:      a.BidCount,
		Extensions:    a.Extensions,
		Flagged:       a.Flagged,
		FlagReason:    a.FlagReason,
		CreatedAt:     FormatTime(a.CreatedAt),
	}
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		TeamID:    b.TeamID,
		Amount:    b.Amount,
		CreatedAt: FormatTime(b.CreatedAt),
	}
}
