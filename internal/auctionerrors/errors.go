package auctionerrors

import (
	"errors"
	"fmt"
)

// Lookup errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNoSettlement    = errors.New("auction has no settlement")
)

// Rejected input. These never leave side effects behind.
var (
	ErrInvalidBid          = errors.New("invalid bid")
	ErrClosedAuction       = errors.New("auction is closed")
	ErrBidTooLow           = errors.New("bid amount too low")
	ErrAlreadyLeading      = errors.New("team is already the highest bidder")
	ErrInsufficientBalance = errors.New("insufficient spendable balance")
	ErrInvalidPlayer       = errors.New("invalid player")
	ErrInvalidAuction      = errors.New("invalid auction")
	ErrNotPending          = errors.New("auction is not pending")
	ErrNotActive           = errors.New("auction is not active")
	ErrNotCancellable      = errors.New("auction cannot be cancelled")
	ErrUnauthorized        = errors.New("caller is not an admin")
)

// Store and consistency errors
var (
	ErrStatusConflict     = errors.New("auction status changed concurrently")
	ErrInvariantViolation = errors.New("internal invariant violated")
)

// BidTooLowError reports the minimum acceptable amount alongside ErrBidTooLow
type BidTooLowError struct {
	Minimum int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: minimum acceptable is %d", ErrBidTooLow, e.Minimum)
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}

// MinimumAcceptable extracts the minimum bid from err, if it carries one
func MinimumAcceptable(err error) (int64, bool) {
	var tooLow *BidTooLowError
	if errors.As(err, &tooLow) {
		return tooLow.Minimum, true
	}
	return 0, false
}
