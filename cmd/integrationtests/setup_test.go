package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"league-auction/internal/admin"
	auction "league-auction/internal/auctionService"
	"league-auction/internal/clock"
	"league-auction/internal/league"
	"league-auction/internal/repository"
	"league-auction/internal/server"
	"league-auction/services/auction/handler"
	"league-auction/services/auction/helpers"

	"github.com/gin-gonic/gin"
)

const adminID = "commissioner"

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testEnv is a fully wired in-memory server driven by a manual clock
type testEnv struct {
	router *gin.Engine
	svc    *auction.AuctionService
	ledger *league.MemoryLedger
	roster *league.MemoryRoster
	clock  *clock.Manual
}

// SetupTestEnv wires the whole application over in-memory stores seeded with teams and players.
func SetupTestEnv(t *testing.T, teams map[string]int64, players map[string]string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		ledger: league.NewMemoryLedger(teams),
		roster: league.NewMemoryRoster(players),
		clock:  clock.NewManual(epoch),
	}
	env.svc = auction.NewAuctionService(repository.NewMemoryRepo(), auction.Dependencies{
		Ledger:    env.ledger,
		Players:   env.roster,
		Ownership: env.roster,
		Transfers: league.NewSellerTransfers(env.roster, env.ledger),
		Notifier:  league.LogNotifier{},
	}, auction.Options{
		Duration:          5 * time.Minute,
		MinIncrement:      500_000,
		SnipeWindow:       10 * time.Second,
		SnipeExtension:    15 * time.Second,
		SettlementRetries: 2,
		SettlementBackoff: time.Millisecond,
		Clock:             env.clock,
	})
	t.Cleanup(env.svc.Close)

	controller := admin.NewController(env.svc, league.NewStaticAdmins([]string{adminID}))
	env.router = server.SetupRouter(handler.NewAuctionHandler(env.svc, controller))
	return env
}

// ExecuteRequestAndParse executes an HTTP request on the router as caller and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, caller string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(helpers.CallerHeader, caller)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}
