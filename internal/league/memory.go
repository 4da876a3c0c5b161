// Package league holds the collaborators the auction engine talks to but does
// not own: team ledgers, the player roster, seller payouts, settlement
// notifications and the admin capability check.
package league

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"league-auction/internal/auctionerrors"
)

// MemoryLedger keeps team balances in memory
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]int64 // key: teamID -> balance
	entries  []LedgerEntry
}

// LedgerEntry is one balance movement
type LedgerEntry struct {
	TeamID string
	Amount int64 // negative for debits
	Kind   string
}

// Ledger entry kinds
const (
	EntryDebit  = "auction_debit"
	EntryCredit = "auction_credit"
)

// NewMemoryLedger creates a ledger seeded with the given balances
func NewMemoryLedger(balances map[string]int64) *MemoryLedger {
	l := &MemoryLedger{balances: make(map[string]int64, len(balances))}
	for team, balance := range balances {
		l.balances[team] = balance
	}
	return l
}

// GetBalance returns the team's ledger balance
func (l *MemoryLedger) GetBalance(_ context.Context, teamID string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, ok := l.balances[teamID]
	if !ok {
		return 0, fmt.Errorf("ledger: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	return balance, nil
}

// Debit removes amount from the team's balance
func (l *MemoryLedger) Debit(_ context.Context, teamID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: %w - non-positive debit", auctionerrors.ErrInvalidBid)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[teamID]
	if !ok {
		return fmt.Errorf("ledger: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	if balance < amount {
		return fmt.Errorf("ledger: %w - team %s has %d, debit is %d",
			auctionerrors.ErrInsufficientBalance, teamID, balance, amount)
	}
	l.balances[teamID] = balance - amount
	l.entries = append(l.entries, LedgerEntry{TeamID: teamID, Amount: -amount, Kind: EntryDebit})
	return nil
}

// Credit adds amount to the team's balance
func (l *MemoryLedger) Credit(_ context.Context, teamID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: %w - non-positive credit", auctionerrors.ErrInvalidBid)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[teamID]; !ok {
		return fmt.Errorf("ledger: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	l.balances[teamID] += amount
	l.entries = append(l.entries, LedgerEntry{TeamID: teamID, Amount: amount, Kind: EntryCredit})
	return nil
}

// Entries returns the recorded balance movements in order
func (l *MemoryLedger) Entries() []LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]LedgerEntry(nil), l.entries...)
}

// MemoryRoster tracks which team owns each player
type MemoryRoster struct {
	mu     sync.RWMutex
	owners map[string]string // key: playerID -> teamID, empty for free agents
}

// NewMemoryRoster creates a roster seeded with player ownership
func NewMemoryRoster(owners map[string]string) *MemoryRoster {
	r := &MemoryRoster{owners: make(map[string]string, len(owners))}
	for player, team := range owners {
		r.owners[player] = team
	}
	return r
}

func (r *MemoryRoster) PlayerExists(_ context.Context, playerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owners[playerID]
	return ok, nil
}

// Owner returns the team owning the player, or "" for a free agent
func (r *MemoryRoster) Owner(_ context.Context, playerID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	team, ok := r.owners[playerID]
	if !ok {
		return "", fmt.Errorf("roster: player %s: %w", playerID, auctionerrors.ErrPlayerNotFound)
	}
	return team, nil
}

// ReassignPlayer moves the player to teamID
func (r *MemoryRoster) ReassignPlayer(_ context.Context, playerID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[playerID]; !ok {
		return fmt.Errorf("roster: player %s: %w", playerID, auctionerrors.ErrPlayerNotFound)
	}
	r.owners[playerID] = teamID
	return nil
}

// Players returns every known player ID, sorted
func (r *MemoryRoster) Players() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.owners))
	for id := range r.owners {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
