package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

type ledgerSource interface {
	GetSystemTransactions(ctx context.Context, date domain.Date) ([]domain.SystemTransactionRecord, error)
	GetSettledTransactions(ctx context.Context, vendorID string, period domain.Period) ([]domain.SystemTransactionRecord, error)
}

type bankSource interface {
	FetchBankRecords(ctx context.Context, date domain.Date) ([]domain.BankRecord, error)
}

type summaryRepository interface {
	GetByDate(ctx context.Context, date domain.Date) (*domain.DailyReconciliationSummary, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, date domain.Date) (*domain.DailyReconciliationSummary, error)
	List(ctx context.Context, from, to domain.Date) ([]domain.DailyReconciliationSummary, error)
	Totals(ctx context.Context, from, to domain.Date) ([]domain.SummaryTotals, error)
	Upsert(ctx context.Context, tx *sql.Tx, s *domain.DailyReconciliationSummary) error
}

type exceptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationException, error)
	ListByDate(ctx context.Context, tx *sql.Tx, date domain.Date) ([]domain.ReconciliationException, error)
	List(ctx context.Context, f domain.ExceptionFilter) ([]domain.ReconciliationException, int, error)
	Upsert(ctx context.Context, tx *sql.Tx, e *domain.ReconciliationException) error
	MarkSuperseded(ctx context.Context, tx *sql.Tx, ids []uuid.UUID, at time.Time) error
	Assign(ctx context.Context, id uuid.UUID, assignee string, at time.Time) (*domain.ReconciliationException, error)
	Resolve(ctx context.Context, tx *sql.Tx, id uuid.UUID, res domain.Resolution) (*domain.ReconciliationException, error)
	CountOpen(ctx context.Context, tx *sql.Tx, date domain.Date) (int, error)
	CountByCategory(ctx context.Context, from, to domain.Date) ([]domain.ExceptionCount, error)
}

type adjustmentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.Adjustment) error
	SumByDate(ctx context.Context, tx *sql.Tx, date domain.Date) (int64, error)
	ListByDate(ctx context.Context, date domain.Date) ([]domain.Adjustment, error)
}

type vendorDirectory interface {
	ListActive(ctx context.Context) ([]domain.Vendor, error)
}

type vendorRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Vendor, error)
	SetCommissionRate(ctx context.Context, tx *sql.Tx, id string, rate decimal.Decimal) error
	InsertRateChange(ctx context.Context, tx *sql.Tx, c *domain.CommissionRateChange) error
	ListRateChanges(ctx context.Context, vendorID string) ([]domain.CommissionRateChange, error)
}

type statementRepository interface {
	Get(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error)
	List(ctx context.Context, period domain.Period, vendorID string) ([]domain.VendorStatement, error)
	SaveDraft(ctx context.Context, st *domain.VendorStatement) (*domain.VendorStatement, error)
	LockForUpdate(ctx context.Context, tx *sql.Tx, vendorID string, period domain.Period) (*domain.VendorStatement, error)
	Transition(ctx context.Context, tx *sql.Tx, vendorID string, period domain.Period, from, to domain.StatementStatus, at time.Time) (*domain.VendorStatement, error)
}

type statementDelivery interface {
	Deliver(ctx context.Context, st domain.VendorStatement) error
}
