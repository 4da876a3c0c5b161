package league

import (
	"context"
	"fmt"
)

// OwnerLookup resolves the team currently owning a player
type OwnerLookup interface {
	Owner(ctx context.Context, playerID string) (string, error)
}

// Crediter pays money into a team's ledger
type Crediter interface {
	Credit(ctx context.Context, teamID string, amount int64) error
}

// SellerTransfers pays the settled price to the player's current owner.
// Free agents have no seller and nothing is credited.
type SellerTransfers struct {
	owners OwnerLookup
	ledger Crediter
}

// NewSellerTransfers creates the seller payout rule
func NewSellerTransfers(owners OwnerLookup, ledger Crediter) *SellerTransfers {
	return &SellerTransfers{owners: owners, ledger: ledger}
}

// CreditSeller credits amount to the player's owner and returns the owner's team ID
func (t *SellerTransfers) CreditSeller(ctx context.Context, playerID string, amount int64) (string, error) {
	seller, err := t.owners.Owner(ctx, playerID)
	if err != nil {
		return "", fmt.Errorf("transfers: %w", err)
	}
	if seller == "" || amount <= 0 {
		return "", nil
	}
	if err := t.ledger.Credit(ctx, seller, amount); err != nil {
		return "", fmt.Errorf("transfers: credit seller %s: %w", seller, err)
	}
	return seller, nil
}
