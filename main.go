package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"league-auction/internal/admin"
	auction "league-auction/internal/auctionService"
	"league-auction/internal/config"
	"league-auction/internal/db/postgres"
	"league-auction/internal/jobs"
	"league-auction/internal/league"
	"league-auction/internal/repository"
	"league-auction/internal/server"
	"league-auction/services/auction/handler"
	"league-auction/utils"
)

// stores groups the persistence backends selected by STORE_BACKEND
type stores struct {
	repo   repository.AuctionDB
	ledger interface {
		auction.Ledger
		league.Crediter
	}
	roster interface {
		auction.PlayerDirectory
		auction.Ownership
		league.OwnerLookup
	}
	pool *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		utils.Fatal("failed to configure logger", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to open stores", map[string]any{"backend": cfg.StoreBackend, "error": err.Error()})
	}
	if st.pool != nil {
		defer st.pool.Close()
	}

	svc := auction.NewAuctionService(st.repo, auction.Dependencies{
		Ledger:    st.ledger,
		Players:   st.roster,
		Ownership: st.roster,
		Transfers: league.NewSellerTransfers(st.roster, st.ledger),
		Notifier:  league.LogNotifier{},
	}, auction.OptionsFromConfig(cfg))
	defer svc.Close()

	rearmed, err := svc.Recover(ctx)
	if err != nil {
		utils.Fatal("failed to recover active auctions", map[string]any{"error": err.Error()})
	}
	utils.Info("recovered active auctions", map[string]any{"count": rearmed})

	scheduler := jobs.NewScheduler(svc, cfg.SweepSchedule)
	scheduler.RunOnce(ctx)
	if err := scheduler.Start(ctx); err != nil {
		utils.Fatal("failed to start scheduler", map[string]any{"error": err.Error()})
	}
	defer scheduler.Stop()

	controller := admin.NewController(svc, league.NewStaticAdmins(cfg.AdminIDs))
	router := server.SetupRouter(handler.NewAuctionHandler(svc, controller))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "backend": cfg.StoreBackend})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.Info("shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Error("server stopped with error", map[string]any{"error": err.Error()})
		return
	}
	utils.Info("server exited", nil)
}

// openStores builds the auction store, ledger and roster for the configured backend
func openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	if cfg.StoreBackend == config.BackendMemory {
		return stores{
			repo:   repository.NewMemoryRepo(),
			ledger: league.NewMemoryLedger(cfg.SeedTeams),
			roster: league.NewMemoryRoster(cfg.SeedPlayers),
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return stores{}, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, err
	}
	if err := league.SeedPostgres(ctx, pool, cfg.SeedTeams, cfg.SeedPlayers); err != nil {
		pool.Close()
		return stores{}, err
	}
	return stores{
		repo:   repository.NewPostgresRepo(pool),
		ledger: league.NewPostgresLedger(pool),
		roster: league.NewPostgresRoster(pool),
		pool:   pool,
	}, nil
}
