package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vendstack/vending-backend/internal/adapter/http/controller"
	"github.com/vendstack/vending-backend/internal/adapter/http/router"
	"github.com/vendstack/vending-backend/internal/adapter/repository/memory"
	"github.com/vendstack/vending-backend/internal/adapter/repository/postgres"
	"github.com/vendstack/vending-backend/internal/adapter/repository/repo_interfaces"
	"github.com/vendstack/vending-backend/internal/config"
	"github.com/vendstack/vending-backend/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ledgerRepo repo_interfaces.LedgerRepository
	var transactionRepo repo_interfaces.TransactionRepository

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		memoryLedger := memory.NewLedgerRepository(cfg.SeedMachineBalance, cfg.SeedUserBalance)
		ledgerRepo = memoryLedger
		transactionRepo = memory.NewTransactionRepository(memoryLedger)
	default:
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := postgres.RunMigrations(migrateCtx, db, cfg.MigrationsDir); err != nil {
			cancel()
			log.Fatalf("run migrations: %v", err)
		}
		cancel()

		ledgerRepo = postgres.NewLedgerRepository(db)
		transactionRepo = postgres.NewTransactionRepository(db)
	}

	transactionService := services.NewTransactionService(transactionRepo)
	ledgerService := services.NewLedgerService(ledgerRepo)
	systemService := services.NewSystemService(transactionRepo, ledgerRepo)
	sweeper := services.NewSweeper(transactionRepo, cfg.SweepInterval)

	mux := router.New(
		controller.NewTransactionController(transactionService),
		controller.NewBalanceController(ledgerService),
		controller.NewSystemController(systemService),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("server listening on %s (store: %s)", server.Addr, cfg.StoreDriver)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
