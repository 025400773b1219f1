// Package app assembles the repositories, feeds and services shared by the
// API server and the reconctl CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/evend-recon/internal/config"
	"github.com/josh-kwaku/evend-recon/internal/fx"
	"github.com/josh-kwaku/evend-recon/internal/ingest"
	"github.com/josh-kwaku/evend-recon/internal/repository"
	"github.com/josh-kwaku/evend-recon/internal/service"
)

type App struct {
	DB          *sql.DB
	FX          *fx.RateService
	Idempotency *repository.IdempotencyRepository

	Reconciliation *service.ReconciliationService
	Exceptions     *service.ExceptionService
	Statements     *service.StatementService
	Vendors        *service.VendorService
}

// New connects to the database and wires every service. The caller owns
// Close.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}

	bank, err := ingest.NewBankFeed(ingest.FeedConfig{
		Mode:    cfg.BankFeedMode,
		BaseURL: cfg.BankFeedURL,
		Dir:     cfg.BankFeedDir,
		Timeout: cfg.BankFeedTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}

	rates := fx.NewRateService()
	ledger := repository.NewLedgerRepository(db)
	summaries := repository.NewSummaryRepository(db)
	exceptions := repository.NewExceptionRepository(db)
	adjustments := repository.NewAdjustmentRepository(db)
	vendors := repository.NewVendorRepository(db)

	return &App{
		DB:          db,
		FX:          rates,
		Idempotency: repository.NewIdempotencyRepository(db),
		Reconciliation: service.NewReconciliationService(
			ledger, bank, summaries, exceptions, adjustments, rates, db, cfg,
		),
		Exceptions: service.NewExceptionService(exceptions, adjustments, summaries, db),
		Statements: service.NewStatementService(
			vendors,
			ledger,
			repository.NewStatementRepository(db),
			service.NewDeliveryClient(cfg.DeliveryURL, cfg.BankFeedTimeout),
			rates,
			db,
			cfg.StatementWorkers,
		),
		Vendors: service.NewVendorService(vendors, db),
	}, nil
}

func (a *App) Migrate(ctx context.Context) ([]string, error) {
	return repository.Migrate(ctx, a.DB, repository.FindMigrationsDir())
}

func (a *App) Close() error {
	return a.DB.Close()
}
