// Package escrow holds the Reservation Table: per-team funds set aside for
// in-progress auctions, checked against a locally cached view of each team's
// ledger balance.
//
// Every team account has its own mutex. Callers that also serialize per
// auction must take the auction lock first and at most one account lock at a
// time; the table never calls out while holding an account lock.
package escrow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"league-auction/internal/auctionerrors"
	"league-auction/internal/models"
)

// BalanceSource is the ledger read used to populate the cache
type BalanceSource interface {
	GetBalance(ctx context.Context, teamID string) (int64, error)
}

// Table is a concurrency-safe Reservation Table
type Table struct {
	src BalanceSource

	mu       sync.RWMutex
	accounts map[string]*account
}

type account struct {
	mu      sync.Mutex
	loaded  bool
	balance int64
	holds   map[string]int64 // key: auctionID -> amount held
}

func (a *account) held() int64 {
	var sum int64
	for _, amount := range a.holds {
		sum += amount
	}
	return sum
}

// NewTable creates an empty table backed by src
func NewTable(src BalanceSource) *Table {
	return &Table{
		src:      src,
		accounts: make(map[string]*account),
	}
}

func (t *Table) account(teamID string) *account {
	t.mu.RLock()
	acct, ok := t.accounts[teamID]
	t.mu.RUnlock()
	if ok {
		return acct
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if acct, ok = t.accounts[teamID]; !ok {
		acct = &account{holds: make(map[string]int64)}
		t.accounts[teamID] = acct
	}
	return acct
}

func (t *Table) lookup(teamID string) (*account, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	acct, ok := t.accounts[teamID]
	return acct, ok
}

// Load makes sure the team's balance is cached, reading the ledger at most once.
// It must be called outside any engine lock since it may block on I/O.
func (t *Table) Load(ctx context.Context, teamID string) error {
	if teamID == "" {
		return fmt.Errorf("escrow: %w - empty team ID", auctionerrors.ErrTeamNotFound)
	}
	acct := t.account(teamID)

	acct.mu.Lock()
	loaded := acct.loaded
	acct.mu.Unlock()
	if loaded {
		return nil
	}

	balance, err := t.src.GetBalance(ctx, teamID)
	if err != nil {
		return fmt.Errorf("escrow: load balance for team %s: %w", teamID, err)
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	if !acct.loaded {
		acct.balance = balance
		acct.loaded = true
	}
	return nil
}

// Refresh re-reads the team's ledger balance into the cache
func (t *Table) Refresh(ctx context.Context, teamID string) (models.TeamBalance, error) {
	balance, err := t.src.GetBalance(ctx, teamID)
	if err != nil {
		return models.TeamBalance{}, fmt.Errorf("escrow: refresh balance for team %s: %w", teamID, err)
	}

	acct := t.account(teamID)
	acct.mu.Lock()
	acct.balance = balance
	acct.loaded = true
	acct.mu.Unlock()

	return t.Snapshot(teamID)
}

// Reserve replaces the team's hold on auctionID with amount, provided the team's
// cached balance covers it together with its holds on every other auction.
// It returns the hold it replaced so a caller can Restore it.
func (t *Table) Reserve(teamID, auctionID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("escrow: %w - non-positive reservation", auctionerrors.ErrInvalidBid)
	}
	acct, ok := t.lookup(teamID)
	if !ok {
		return 0, fmt.Errorf("escrow: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	if !acct.loaded {
		return 0, fmt.Errorf("escrow: team %s balance not loaded: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	total := acct.held()
	if total > acct.balance {
		return 0, fmt.Errorf("escrow: %w - team %s already holds %d over balance %d",
			auctionerrors.ErrInsufficientBalance, teamID, total, acct.balance)
	}

	prev := acct.holds[auctionID]
	others := total - prev
	if acct.balance-others-amount < 0 {
		return 0, fmt.Errorf("escrow: %w - team %s can spend %d, needs %d",
			auctionerrors.ErrInsufficientBalance, teamID, acct.balance-others, amount)
	}

	acct.holds[auctionID] = amount
	return prev, nil
}

// Restore puts back a hold returned by Reserve, undoing it
func (t *Table) Restore(teamID, auctionID string, prev int64) {
	acct, ok := t.lookup(teamID)
	if !ok {
		return
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	if prev > 0 {
		acct.holds[auctionID] = prev
	} else {
		delete(acct.holds, auctionID)
	}
}

// Release drops the team's hold on auctionID and returns the amount freed
func (t *Table) Release(teamID, auctionID string) int64 {
	acct, ok := t.lookup(teamID)
	if !ok {
		return 0
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	amount := acct.holds[auctionID]
	delete(acct.holds, auctionID)
	return amount
}

// ReleaseAuction drops every hold on auctionID except keepTeamID's and returns the released holds
func (t *Table) ReleaseAuction(auctionID, keepTeamID string) []models.Reservation {
	t.mu.RLock()
	teams := make(map[string]*account, len(t.accounts))
	for id, acct := range t.accounts {
		teams[id] = acct
	}
	t.mu.RUnlock()

	var released []models.Reservation
	for teamID, acct := range teams {
		if teamID == keepTeamID {
			continue
		}
		acct.mu.Lock()
		if amount, ok := acct.holds[auctionID]; ok {
			delete(acct.holds, auctionID)
			released = append(released, models.Reservation{TeamID: teamID, AuctionID: auctionID, Amount: amount})
		}
		acct.mu.Unlock()
	}
	sort.Slice(released, func(i, j int) bool { return released[i].TeamID < released[j].TeamID })
	return released
}

// Consume turns the team's hold on auctionID into a charge: the hold is removed
// and the cached balance is reduced by amount. Call it once the ledger debit succeeded.
func (t *Table) Consume(teamID, auctionID string, amount int64) error {
	acct, ok := t.lookup(teamID)
	if !ok {
		return fmt.Errorf("escrow: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	held, ok := acct.holds[auctionID]
	if !ok || held != amount {
		return fmt.Errorf("escrow: team %s holds %d on auction %s, charge is %d: %w",
			teamID, held, auctionID, amount, auctionerrors.ErrInvariantViolation)
	}
	delete(acct.holds, auctionID)
	acct.balance -= amount
	return nil
}

// Credit adds amount to a cached balance. Teams not cached yet are left alone;
// their first Load reads the ledger, which already includes the credit.
func (t *Table) Credit(teamID string, amount int64) {
	acct, ok := t.lookup(teamID)
	if !ok {
		return
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	if acct.loaded {
		acct.balance += amount
	}
}

// Held returns the team's hold on auctionID
func (t *Table) Held(teamID, auctionID string) int64 {
	acct, ok := t.lookup(teamID)
	if !ok {
		return 0
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.holds[auctionID]
}

// Snapshot returns the team's cached balance, holds and spendable amount
func (t *Table) Snapshot(teamID string) (models.TeamBalance, error) {
	acct, ok := t.lookup(teamID)
	if !ok {
		return models.TeamBalance{}, fmt.Errorf("escrow: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	if !acct.loaded {
		return models.TeamBalance{}, fmt.Errorf("escrow: team %s: %w", teamID, auctionerrors.ErrTeamNotFound)
	}

	tb := models.TeamBalance{
		TeamID:       teamID,
		Balance:      acct.balance,
		Reservations: make([]models.Reservation, 0, len(acct.holds)),
	}
	for auctionID, amount := range acct.holds {
		tb.Reserved += amount
		tb.Reservations = append(tb.Reservations, models.Reservation{TeamID: teamID, AuctionID: auctionID, Amount: amount})
	}
	sort.Slice(tb.Reservations, func(i, j int) bool { return tb.Reservations[i].AuctionID < tb.Reservations[j].AuctionID })
	tb.Spendable = tb.Balance - tb.Reserved
	return tb, nil
}

// CheckInvariant verifies that no cached team holds more than its balance
func (t *Table) CheckInvariant() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for teamID, acct := range t.accounts {
		acct.mu.Lock()
		held, balance := acct.held(), acct.balance
		acct.mu.Unlock()
		if held > balance {
			return fmt.Errorf("escrow: team %s holds %d over balance %d: %w",
				teamID, held, balance, auctionerrors.ErrInvariantViolation)
		}
	}
	return nil
}
