package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the auction storage interface for the engine.
// Auctions and bids are never deleted; terminal auctions stay as history.
type AuctionDB interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error)
	// SwapAuction stores auction only if the stored status still equals expected
	SwapAuction(ctx context.Context, auction model.Auction, expected model.AuctionStatus) error
	// CommitBid appends bid and stores the updated auction as one step
	CommitBid(ctx context.Context, auction model.Auction, bid model.Bid) error
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	RecordSettlement(ctx context.Context, settlement model.Settlement) error
	GetSettlement(ctx context.Context, auctionID string) (model.Settlement, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu          sync.RWMutex
	auctions    map[string]model.Auction    // key: auctionID -> value: auction
	bids        map[string][]model.Bid      // key: auctionID -> value: accepted bids in order
	settlements map[string]model.Settlement // key: auctionID -> value: settlement
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:    make(map[string]model.Auction),
		bids:        make(map[string][]model.Bid),
		settlements: make(map[string]model.Settlement),
	}
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}
	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w - duplicate ID", auction.AuctionID, auctionerrors.ErrInvalidAuction)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns the auction with the given ID
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctions returns auctions with the given status, or all of them for an empty status,
// oldest first
func (r *MemoryRepo) ListAuctions(_ context.Context, status model.AuctionStatus) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].AuctionID < out[j].AuctionID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SwapAuction replaces the stored auction if its status is still expected
func (r *MemoryRepo) SwapAuction(_ context.Context, auction model.Auction, expected model.AuctionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.auctions[auction.AuctionID]
	if !ok {
		return fmt.Errorf("swap auction %s: %w", auction.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if stored.Status != expected {
		return fmt.Errorf("swap auction %s: stored %s, expected %s: %w",
			auction.AuctionID, stored.Status, expected, auctionerrors.ErrStatusConflict)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// CommitBid records an accepted bid together with the auction it updated
func (r *MemoryRepo) CommitBid(_ context.Context, auction model.Auction, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.auctions[bid.AuctionID]
	if !ok || bid.AuctionID != auction.AuctionID {
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if stored.Status != model.StatusActive {
		return fmt.Errorf("commit bid for auction %s: stored %s: %w", bid.AuctionID, stored.Status, auctionerrors.ErrStatusConflict)
	}
	if bids := r.bids[bid.AuctionID]; len(bids) > 0 && bids[len(bids)-1].Amount >= bid.Amount {
		return fmt.Errorf("commit bid for auction %s: %d does not exceed %d: %w",
			bid.AuctionID, bid.Amount, bids[len(bids)-1].Amount, auctionerrors.ErrInvariantViolation)
	}

	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetBidsByAuction returns all accepted bids for an auction in acceptance order
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return append([]model.Bid{}, r.bids[auctionID]...), nil
}

// RecordSettlement stores the settlement of a concluded auction, replacing an earlier record
func (r *MemoryRepo) RecordSettlement(_ context.Context, settlement model.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[settlement.AuctionID]; !ok {
		return fmt.Errorf("record settlement for auction %s: %w", settlement.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	r.settlements[settlement.AuctionID] = settlement
	return nil
}

// GetSettlement returns the settlement of a concluded auction
func (r *MemoryRepo) GetSettlement(_ context.Context, auctionID string) (model.Settlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settlements[auctionID]
	if !ok {
		return model.Settlement{}, fmt.Errorf("get settlement for auction %s: %w", auctionID, auctionerrors.ErrNoSettlement)
	}
	return s, nil
}
