package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"league-auction/internal/auctionerrors"
	model "league-auction/internal/models"
	"league-auction/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *MockAuctionServiceInterface, *MockAdminInterface) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	svc := NewMockAuctionServiceInterface(ctrl)
	admin := NewMockAdminInterface(ctrl)
	h := NewAuctionHandler(svc, admin)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", h.CreateAuctionHandler)
	router.GET("/auctions", h.ListAuctionsHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.POST("/auctions/:auction_id/activate", h.ActivateAuctionHandler)
	router.POST("/auctions/:auction_id/cancel", h.CancelAuctionHandler)
	router.POST("/auctions/:auction_id/finish", h.FinishAuctionHandler)
	router.POST("/auctions/:auction_id/bids", h.PlaceBidHandler)
	router.GET("/auctions/:auction_id/bids", h.GetBidsHandler)
	router.GET("/auctions/:auction_id/settlement", h.GetSettlementHandler)
	router.GET("/teams/:team_id/balance", h.GetTeamBalanceHandler)
	router.POST("/teams/:team_id/refresh", h.RefreshBalanceHandler)
	return router, svc, admin
}

func doRequest(t *testing.T, router *gin.Engine, method, path, caller string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(helpers.CallerHeader, caller)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	now := time.Now().UTC()

	tests := []struct {
		name           string
		auctionID      string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validate       func(t *testing.T, resp map[string]any)
	}{
		{
			name:        "success_accepted",
			auctionID:   "a-ok",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 10_000_000},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-ok", "team1", int64(10_000_000)).
					Return(model.BidResult{
						Bid: model.Bid{
							BidID:     uuid.NewString(),
							AuctionID: "a-ok",
							TeamID:    "team1",
							Amount:    10_000_000,
							CreatedAt: now,
						},
						CurrentBid: 10_000_000,
						EndTime:    now.Add(5 * time.Minute),
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid accepted",
			validate: func(t *testing.T, resp map[string]any) {
				data := resp["data"].(map[string]any)
				_, err := uuid.Parse(data["bid_id"].(string))
				require.NoError(t, err)
				require.Equal(t, "team1", data["team_id"])
				require.Equal(t, float64(10_000_000), data["current_bid"])
				require.Equal(t, false, data["extended"])
				require.NotEmpty(t, data["end_time"])
			},
		},
		{
			name:           "invalid_json",
			auctionID:      "a-json",
			requestBody:    `{invalid json}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_team_id",
			auctionID:      "a-team",
			requestBody:    helpers.PlaceBidRequest{Amount: 50},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "negative_amount",
			auctionID:      "a-neg",
			requestBody:    helpers.PlaceBidRequest{TeamID: "team1", Amount: -10},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "bid_too_low_reports_minimum",
			auctionID:   "a-low",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 100},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-low", "team1", int64(100)).
					Return(model.BidResult{}, fmt.Errorf("auction: %w", &auctionerrors.BidTooLowError{Minimum: 10_500_000}))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount too low",
			validate: func(t *testing.T, resp map[string]any) {
				details := resp["details"].(map[string]any)
				require.Equal(t, float64(10_500_000), details["min_acceptable"])
			},
		},
		{
			name:        "insufficient_balance",
			auctionID:   "a-broke",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 100},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-broke", "team1", int64(100)).
					Return(model.BidResult{}, auctionerrors.ErrInsufficientBalance)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "insufficient spendable balance",
		},
		{
			name:        "already_leading",
			auctionID:   "a-lead",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 100},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-lead", "team1", int64(100)).
					Return(model.BidResult{}, auctionerrors.ErrAlreadyLeading)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "team is already the highest bidder",
		},
		{
			name:        "unknown_auction",
			auctionID:   "a-missing",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 100},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-missing", "team1", int64(100)).
					Return(model.BidResult{}, fmt.Errorf("auction: %w: %w", auctionerrors.ErrClosedAuction, auctionerrors.ErrAuctionNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:        "closed_auction",
			auctionID:   "a-closed",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 100},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-closed", "team1", int64(100)).
					Return(model.BidResult{}, auctionerrors.ErrClosedAuction)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is closed",
		},
		{
			name:        "invariant_violation",
			auctionID:   "a-frozen",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 100},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-frozen", "team1", int64(100)).
					Return(model.BidResult{}, auctionerrors.ErrInvariantViolation)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "auction frozen for review",
		},
		{
			name:        "service_generic_error",
			auctionID:   "a-db",
			requestBody: helpers.PlaceBidRequest{TeamID: "team1", Amount: 100},
			mockSetup: func() {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a-db", "team1", int64(100)).
					Return(model.BidResult{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.mockSetup()

			w, resp := doRequest(t, router, http.MethodPost, "/auctions/"+tc.auctionID+"/bids", "", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if tc.validate != nil {
				tc.validate(t, resp)
			}
		})
	}
}

// Test the admin endpoints
func TestAdminHandlers(t *testing.T) {
	router, _, admin := newTestRouter(t)
	now := time.Now().UTC().Truncate(time.Second)
	scheduled := now.Add(time.Hour)

	tests := []struct {
		name           string
		method         string
		path           string
		caller         string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validate       func(t *testing.T, data map[string]any)
	}{
		{
			name:        "create_success",
			method:      http.MethodPost,
			path:        "/auctions",
			caller:      "admin-create",
			requestBody: helpers.CreateAuctionRequest{PlayerID: "p1", StartPrice: 9_500_000, ScheduledAt: &scheduled},
			mockSetup: func() {
				admin.EXPECT().
					CreatePendingAuction(gomock.Any(), "admin-create", model.NewAuction{
						PlayerID:    "p1",
						StartPrice:  9_500_000,
						ScheduledAt: scheduled.UTC(),
					}).
					Return(model.Auction{
						AuctionID:   "a1",
						PlayerID:    "p1",
						StartPrice:  9_500_000,
						Status:      model.StatusPending,
						ScheduledAt: scheduled,
						CreatedAt:   now,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
			validate: func(t *testing.T, data map[string]any) {
				require.Equal(t, "a1", data["auction_id"])
				require.Equal(t, "pending", data["status"])
				require.Equal(t, helpers.FormatTime(scheduled), data["scheduled_at"])
			},
		},
		{
			name:           "create_missing_player",
			method:         http.MethodPost,
			path:           "/auctions",
			caller:         "admin-bad",
			requestBody:    helpers.CreateAuctionRequest{StartPrice: 10},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "create_unauthorized",
			method:      http.MethodPost,
			path:        "/auctions",
			caller:      "intruder",
			requestBody: helpers.CreateAuctionRequest{PlayerID: "p2", StartPrice: 10},
			mockSetup: func() {
				admin.EXPECT().
					CreatePendingAuction(gomock.Any(), "intruder", gomock.Any()).
					Return(model.Auction{}, fmt.Errorf("admin: %w - create auction", auctionerrors.ErrUnauthorized))
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "admin capability required",
		},
		{
			name:        "create_unknown_player",
			method:      http.MethodPost,
			path:        "/auctions",
			caller:      "admin-ghost",
			requestBody: helpers.CreateAuctionRequest{PlayerID: "ghost", StartPrice: 10},
			mockSetup: func() {
				admin.EXPECT().
					CreatePendingAuction(gomock.Any(), "admin-ghost", gomock.Any()).
					Return(model.Auction{}, auctionerrors.ErrInvalidPlayer)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedMsg:    "invalid player",
		},
		{
			name:   "activate_success",
			method: http.MethodPost,
			path:   "/auctions/a2/activate",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					Activate(gomock.Any(), "admin", "a2").
					Return(model.Auction{AuctionID: "a2", Status: model.StatusActive, StartTime: now, EndTime: now.Add(time.Minute)}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction activated successfully",
			validate: func(t *testing.T, data map[string]any) {
				require.Equal(t, "active", data["status"])
				require.Equal(t, helpers.FormatTime(now.Add(time.Minute)), data["end_time"])
			},
		},
		{
			name:   "activate_not_pending",
			method: http.MethodPost,
			path:   "/auctions/a3/activate",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					Activate(gomock.Any(), "admin", "a3").
					Return(model.Auction{}, auctionerrors.ErrNotPending)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not pending",
		},
		{
			name:   "cancel_success",
			method: http.MethodPost,
			path:   "/auctions/a4/cancel",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					Cancel(gomock.Any(), "admin", "a4").
					Return(model.Settlement{AuctionID: "a4", Outcome: model.OutcomeCancelled, Released: 2, Complete: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction cancelled successfully",
			validate: func(t *testing.T, data map[string]any) {
				require.Equal(t, "cancelled", data["outcome"])
				require.Equal(t, float64(2), data["released_reservations"])
			},
		},
		{
			name:   "cancel_finished",
			method: http.MethodPost,
			path:   "/auctions/a5/cancel",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					Cancel(gomock.Any(), "admin", "a5").
					Return(model.Settlement{}, auctionerrors.ErrNotCancellable)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction cannot be cancelled",
		},
		{
			name:   "finish_success",
			method: http.MethodPost,
			path:   "/auctions/a6/finish",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					ForceFinish(gomock.Any(), "admin", "a6").
					Return(model.Settlement{AuctionID: "a6", Outcome: model.OutcomeSold, WinnerTeamID: "t1", Amount: 12_000_000, Complete: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction finished successfully",
			validate: func(t *testing.T, data map[string]any) {
				require.Equal(t, "sold", data["outcome"])
				require.Equal(t, "t1", data["winner_team_id"])
			},
		},
		{
			name:   "finish_not_active",
			method: http.MethodPost,
			path:   "/auctions/a7/finish",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					ForceFinish(gomock.Any(), "admin", "a7").
					Return(model.Settlement{}, auctionerrors.ErrNotActive)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not active",
		},
		{
			name:   "refresh_success",
			method: http.MethodPost,
			path:   "/teams/t1/refresh",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					RefreshBalance(gomock.Any(), "admin", "t1").
					Return(model.TeamBalance{TeamID: "t1", Balance: 30_000_000, Spendable: 30_000_000}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "balance refreshed successfully",
			validate: func(t *testing.T, data map[string]any) {
				require.Equal(t, float64(30_000_000), data["balance"])
			},
		},
		{
			name:   "refresh_unknown_team",
			method: http.MethodPost,
			path:   "/teams/t9/refresh",
			caller: "admin",
			mockSetup: func() {
				admin.EXPECT().
					RefreshBalance(gomock.Any(), "admin", "t9").
					Return(model.TeamBalance{}, auctionerrors.ErrTeamNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "team not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.mockSetup()

			w, resp := doRequest(t, router, tc.method, tc.path, tc.caller, tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if tc.validate != nil {
				tc.validate(t, resp["data"].(map[string]any))
			}
		})
	}
}

// Test the read endpoints
func TestQueryHandlers(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	now := time.Now().UTC()

	tests := []struct {
		name           string
		path           string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validate       func(t *testing.T, data any)
	}{
		{
			name: "list_active",
			path: "/auctions?status=active",
			mockSetup: func() {
				svc.EXPECT().
					ListAuctions(gomock.Any(), model.StatusActive).
					Return([]model.Auction{
						{AuctionID: "a1", Status: model.StatusActive},
						{AuctionID: "a2", Status: model.StatusActive},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auctions retrieved successfully",
			validate: func(t *testing.T, data any) {
				require.Len(t, data.([]any), 2)
			},
		},
		{
			name: "list_bad_status",
			path: "/auctions?status=open",
			mockSetup: func() {
				svc.EXPECT().
					ListAuctions(gomock.Any(), model.AuctionStatus("open")).
					Return(nil, auctionerrors.ErrInvalidAuction)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction details",
		},
		{
			name: "get_auction",
			path: "/auctions/a1",
			mockSetup: func() {
				svc.EXPECT().
					GetAuction(gomock.Any(), "a1").
					Return(model.Auction{AuctionID: "a1", PlayerID: "p1", Status: model.StatusFinished, CurrentBid: 12_000_000, CurrentBidder: "t1"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
			validate: func(t *testing.T, data any) {
				m := data.(map[string]any)
				require.Equal(t, "finished", m["status"])
				require.Equal(t, "t1", m["current_bidder"])
			},
		},
		{
			name: "get_auction_missing",
			path: "/auctions/nope",
			mockSetup: func() {
				svc.EXPECT().
					GetAuction(gomock.Any(), "nope").
					Return(model.Auction{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name: "get_bids",
			path: "/auctions/a1/bids",
			mockSetup: func() {
				svc.EXPECT().
					GetBids(gomock.Any(), "a1").
					Return([]model.Bid{
						{BidID: "b1", AuctionID: "a1", TeamID: "t1", Amount: 10_000_000, CreatedAt: now},
						{BidID: "b2", AuctionID: "a1", TeamID: "t2", Amount: 11_000_000, CreatedAt: now},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			validate: func(t *testing.T, data any) {
				bids := data.([]any)
				require.Len(t, bids, 2)
				require.Equal(t, "t2", bids[1].(map[string]any)["team_id"])
			},
		},
		{
			name: "get_settlement_pending",
			path: "/auctions/a2/settlement",
			mockSetup: func() {
				svc.EXPECT().
					GetSettlement(gomock.Any(), "a2").
					Return(model.Settlement{}, auctionerrors.ErrNoSettlement)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction has not been settled",
		},
		{
			name: "get_balance",
			path: "/teams/t1/balance",
			mockSetup: func() {
				svc.EXPECT().
					GetTeamBalance(gomock.Any(), "t1").
					Return(model.TeamBalance{
						TeamID:    "t1",
						Balance:   30_000_000,
						Reserved:  10_000_000,
						Spendable: 20_000_000,
						Reservations: []model.Reservation{
							{TeamID: "t1", AuctionID: "a1", Amount: 10_000_000},
						},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "balance retrieved successfully",
			validate: func(t *testing.T, data any) {
				m := data.(map[string]any)
				require.Equal(t, float64(20_000_000), m["spendable"])
				require.Len(t, m["reservations"].([]any), 1)
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.mockSetup()

			w, resp := doRequest(t, router, http.MethodGet, tc.path, "", nil)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if tc.validate != nil {
				tc.validate(t, resp["data"])
			}
		})
	}
}
