// Package admin exposes the lifecycle operations reserved to league administrators.
package admin

import (
	"context"
	"fmt"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
	"league-auction/utils"
)

//go:generate mockgen -source=controller.go -destination=mock_controller.go -package=admin

// Engine is the subset of the auction engine the controller drives
type Engine interface {
	CreatePendingAuction(ctx context.Context, in model.NewAuction) (model.Auction, error)
	Activate(ctx context.Context, auctionID string) (model.Auction, error)
	Cancel(ctx context.Context, auctionID string) (model.Settlement, error)
	ForceFinish(ctx context.Context, auctionID string) (model.Settlement, error)
	RefreshBalance(ctx context.Context, teamID string) (model.TeamBalance, error)
}

// Authorizer checks the admin capability of a caller
type Authorizer interface {
	IsAdmin(callerID string) bool
}

// Controller gates every engine lifecycle operation behind the admin check
type Controller struct {
	engine Engine
	auth   Authorizer
}

// NewController creates a new Controller instance
func NewController(engine Engine, auth Authorizer) *Controller {
	return &Controller{engine: engine, auth: auth}
}

func (c *Controller) authorize(callerID, op string, fields map[string]any) error {
	if c.auth.IsAdmin(callerID) {
		fields["caller_id"] = callerID
		utils.Info("admin: "+op, fields)
		return nil
	}
	utils.Warn("admin: denied "+op, map[string]any{"caller_id": callerID})
	return fmt.Errorf("admin: %w - %s", auctionerrors.ErrUnauthorized, op)
}

// CreatePendingAuction puts a player up for auction in pending state
func (c *Controller) CreatePendingAuction(ctx context.Context, callerID string, in model.NewAuction) (model.Auction, error) {
	if err := c.authorize(callerID, "create auction", map[string]any{"player_id": in.PlayerID}); err != nil {
		return model.Auction{}, err
	}
	return c.engine.CreatePendingAuction(ctx, in)
}

// Activate starts bidding on a pending auction
func (c *Controller) Activate(ctx context.Context, callerID, auctionID string) (model.Auction, error) {
	if err := c.authorize(callerID, "activate auction", map[string]any{"auction_id": auctionID}); err != nil {
		return model.Auction{}, err
	}
	return c.engine.Activate(ctx, auctionID)
}

// Cancel ends a pending or active auction without a sale
func (c *Controller) Cancel(ctx context.Context, callerID, auctionID string) (model.Settlement, error) {
	if err := c.authorize(callerID, "cancel auction", map[string]any{"auction_id": auctionID}); err != nil {
		return model.Settlement{}, err
	}
	return c.engine.Cancel(ctx, auctionID)
}

// ForceFinish settles an active auction immediately
func (c *Controller) ForceFinish(ctx context.Context, callerID, auctionID string) (model.Settlement, error) {
	if err := c.authorize(callerID, "force finish auction", map[string]any{"auction_id": auctionID}); err != nil {
		return model.Settlement{}, err
	}
	return c.engine.ForceFinish(ctx, auctionID)
}

// RefreshBalance reloads a team's ledger balance into the engine
func (c *Controller) RefreshBalance(ctx context.Context, callerID, teamID string) (model.TeamBalance, error) {
	if err := c.authorize(callerID, "refresh balance", map[string]any{"team_id": teamID}); err != nil {
		return model.TeamBalance{}, err
	}
	return c.engine.RefreshBalance(ctx, teamID)
}
