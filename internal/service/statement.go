package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
	"github.com/josh-kwaku/evend-recon/internal/reconcile"
)

type StatementService struct {
	vendors    vendorDirectory
	ledger     ledgerSource
	statements statementRepository
	delivery   statementDelivery
	fx         reconcile.Converter
	db         *sql.DB
	workers    int
	now        func() time.Time
}

func NewStatementService(
	vendors vendorDirectory,
	ledger ledgerSource,
	statements statementRepository,
	delivery statementDelivery,
	fxConv reconcile.Converter,
	db *sql.DB,
	workers int,
) *StatementService {
	if workers < 1 {
		workers = 1
	}
	return &StatementService{
		vendors:    vendors,
		ledger:     ledger,
		statements: statements,
		delivery:   delivery,
		fx:         fxConv,
		db:         db,
		workers:    workers,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds a draft statement for every active vendor over period.
// Statements that already left draft are returned as stored.
func (s *StatementService) Generate(ctx context.Context, period domain.Period) ([]domain.VendorStatement, error) {
	log := logging.FromContext(ctx)

	if period.IsZero() {
		return nil, fmt.Errorf("Generate: period required: %w", domain.ErrInvalidRequest)
	}
	now := s.now()
	if period.Start().After(now) {
		return nil, fmt.Errorf("Generate: %s has not started: %w", period, domain.ErrInvalidRequest)
	}

	vendors, err := s.vendors.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}

	out := make([]domain.VendorStatement, len(vendors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, v := range vendors {
		g.Go(func() error {
			st, err := s.generateOne(gctx, v, period, now)
			if err != nil {
				return fmt.Errorf("vendor %s: %w", v.ID, err)
			}
			out[i] = *st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}

	log.Info("statements generated", "period", period.String(), "vendors", len(out))
	return out, nil
}

func (s *StatementService) generateOne(ctx context.Context, v domain.Vendor, period domain.Period, now time.Time) (*domain.VendorStatement, error) {
	settled, err := s.ledger.GetSettledTransactions(ctx, v.ID, period)
	if err != nil {
		return nil, err
	}
	st, err := reconcile.BuildStatement(v, period, settled, s.fx, now)
	if err != nil {
		return nil, err
	}
	return s.statements.SaveDraft(ctx, &st)
}

// Finalize freezes a draft statement.
func (s *StatementService) Finalize(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error) {
	if err := validateStatementKey(vendorID, period); err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Finalize: begin: %w", err)
	}
	defer tx.Rollback()

	st, err := s.statements.Transition(ctx, tx, vendorID, period,
		domain.StatementStatusDraft, domain.StatementStatusGenerated, s.now())
	if err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Finalize: commit: %w", err)
	}

	logging.FromContext(ctx).Info("statement finalized", "vendor_id", vendorID, "period", period.String())
	return st, nil
}

// Send delivers a generated statement and then marks it sent. The row stays
// locked from the status check until the sent stamp commits, so concurrent
// sends deliver once. A failed delivery leaves the statement generated.
func (s *StatementService) Send(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error) {
	log := logging.FromContext(ctx)

	if err := validateStatementKey(vendorID, period); err != nil {
		return nil, fmt.Errorf("Send: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Send: begin: %w", err)
	}
	defer tx.Rollback()

	current, err := s.statements.LockForUpdate(ctx, tx, vendorID, period)
	if err != nil {
		return nil, fmt.Errorf("Send: %w", err)
	}
	if current.Status != domain.StatementStatusGenerated {
		return nil, fmt.Errorf("Send: %s is %s: %w", vendorID, current.Status, domain.ErrInvalidTransition)
	}

	if err := s.delivery.Deliver(ctx, *current); err != nil {
		log.Warn("statement delivery failed", "vendor_id", vendorID, "period", period.String(), "error", err)
		return nil, fmt.Errorf("Send: %w: %w", domain.ErrDeliveryFailed, err)
	}

	st, err := s.statements.Transition(ctx, tx, vendorID, period,
		domain.StatementStatusGenerated, domain.StatementStatusSent, s.now())
	if err != nil {
		return nil, fmt.Errorf("Send: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Send: commit: %w", err)
	}

	log.Info("statement sent", "vendor_id", vendorID, "period", period.String())
	return st, nil
}

func (s *StatementService) List(ctx context.Context, period domain.Period, vendorID string) ([]domain.VendorStatement, error) {
	out, err := s.statements.List(ctx, period, strings.TrimSpace(vendorID))
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return out, nil
}

func (s *StatementService) Get(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error) {
	if err := validateStatementKey(vendorID, period); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	st, err := s.statements.Get(ctx, vendorID, period)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return st, nil
}

func validateStatementKey(vendorID string, period domain.Period) error {
	if strings.TrimSpace(vendorID) == "" {
		return fmt.Errorf("vendor_id required: %w", domain.ErrInvalidRequest)
	}
	if period.IsZero() {
		return fmt.Errorf("period required: %w", domain.ErrInvalidRequest)
	}
	return nil
}
