package server

import (
	"net/http"

	handler "league-auction/services/auction/handler"
	"league-auction/utils"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionHandler *handler.AuctionHandler) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	router.GET("/healthz", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, nil, "ok")
	})

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/activate", auctionHandler.ActivateAuctionHandler)
		auctions.POST("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctions.POST("/:auction_id/finish", auctionHandler.FinishAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsHandler)
		auctions.GET("/:auction_id/settlement", auctionHandler.GetSettlementHandler)
	}

	teams := router.Group("/teams")
	{
		teams.GET("/:team_id/balance", auctionHandler.GetTeamBalanceHandler)
		teams.POST("/:team_id/refresh", auctionHandler.RefreshBalanceHandler)
	}

	return router
}
