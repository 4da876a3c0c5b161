package handler

import (
	"context"
	"net/http"

	model "league-auction/internal/models"
	"league-auction/services/auction/helpers"
	"league-auction/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_auction_handler.go -package=handler

type AuctionServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, teamID string, amount int64) (model.BidResult, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error)
	GetBids(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetSettlement(ctx context.Context, auctionID string) (model.Settlement, error)
	GetTeamBalance(ctx context.Context, teamID string) (model.TeamBalance, error)
}

type AdminInterface interface {
	CreatePendingAuction(ctx context.Context, callerID string, in model.NewAuction) (model.Auction, error)
	Activate(ctx context.Context, callerID, auctionID string) (model.Auction, error)
	Cancel(ctx context.Context, callerID, auctionID string) (model.Settlement, error)
	ForceFinish(ctx context.Context, callerID, auctionID string) (model.Settlement, error)
	RefreshBalance(ctx context.Context, callerID, teamID string) (model.TeamBalance, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
	admin   AdminInterface
}

func NewAuctionHandler(service AuctionServiceInterface, admin AdminInterface) *AuctionHandler {
	return &AuctionHandler{service: service, admin: admin}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	in := model.NewAuction{PlayerID: req.PlayerID, StartPrice: req.StartPrice}
	if req.ScheduledAt != nil {
		in.ScheduledAt = req.ScheduledAt.UTC()
	}

	a, err := h.admin.CreatePendingAuction(c.Request.Context(), helpers.CallerID(c), in)
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"player_id": req.PlayerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(a), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.AuctionID,
		"player_id":  a.PlayerID,
	})
}

// ActivateAuctionHandler handles POST /auctions/:auction_id/activate
func (h *AuctionHandler) ActivateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.admin.Activate(c.Request.Context(), helpers.CallerID(c), auctionID)
	if err != nil {
		helpers.RespondError(c, "ActivateAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction activated successfully")
	helpers.LogSuccess("ActivateAuctionHandler", "auction activated successfully", map[string]any{
		"auction_id": auctionID,
		"end_time":   helpers.FormatTime(a.EndTime),
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	st, err := h.admin.Cancel(c.Request.Context(), helpers.CallerID(c), auctionID)
	if err != nil {
		helpers.RespondError(c, "CancelAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, st, "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{
		"auction_id": auctionID,
		"released":   st.Released,
	})
}

// FinishAuctionHandler handles POST /auctions/:auction_id/finish
func (h *AuctionHandler) FinishAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	st, err := h.admin.ForceFinish(c.Request.Context(), helpers.CallerID(c), auctionID)
	if err != nil {
		helpers.RespondError(c, "FinishAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, st, "auction finished successfully")
	helpers.LogSuccess("FinishAuctionHandler", "auction finished successfully", map[string]any{
		"auction_id": auctionID,
		"outcome":    st.Outcome,
		"winner":     st.WinnerTeamID,
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	res, err := h.service.PlaceBid(c.Request.Context(), auctionID, req.TeamID, req.Amount)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"team_id":    req.TeamID,
			"amount":     req.Amount,
		})
		return
	}

	resp := helpers.BidAcceptedResponse{
		BidResponse: helpers.NewBidResponse(res.Bid),
		CurrentBid:  res.CurrentBid,
		EndTime:     helpers.FormatTime(res.EndTime),
		Extended:    res.Extended,
	}
	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"auction_id": auctionID,
		"team_id":    req.TeamID,
		"amount":     req.Amount,
		"extended":   res.Extended,
	})
}

// ListAuctionsHandler handles GET /auctions?status=
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	status := model.AuctionStatus(c.Query("status"))
	auctions, err := h.service.ListAuctions(c.Request.Context(), status)
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, map[string]any{"status": string(status)})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.NewAuctionResponse(a))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"status": string(status),
		"count":  len(resp),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction retrieved successfully")
}

// GetBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBids(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetBidsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetSettlementHandler handles GET /auctions/:auction_id/settlement
func (h *AuctionHandler) GetSettlementHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	st, err := h.service.GetSettlement(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetSettlementHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, st, "settlement retrieved successfully")
}

// GetTeamBalanceHandler handles GET /teams/:team_id/balance
func (h *AuctionHandler) GetTeamBalanceHandler(c *gin.Context) {
	teamID := c.Param("team_id")
	tb, err := h.service.GetTeamBalance(c.Request.Context(), teamID)
	if err != nil {
		helpers.RespondError(c, "GetTeamBalanceHandler", err, map[string]any{"team_id": teamID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, tb, "balance retrieved successfully")
}

// RefreshBalanceHandler handles POST /teams/:team_id/refresh
func (h *AuctionHandler) RefreshBalanceHandler(c *gin.Context) {
	teamID := c.Param("team_id")
	tb, err := h.admin.RefreshBalance(c.Request.Context(), helpers.CallerID(c), teamID)
	if err != nil {
		helpers.RespondError(c, "RefreshBalanceHandler", err, map[string]any{"team_id": teamID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, tb, "balance refreshed successfully")
	helpers.LogSuccess("RefreshBalanceHandler", "balance refreshed successfully", map[string]any{
		"team_id": teamID,
		"balance": tb.Balance,
	})
}
