package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

const transactionColumns = `id, reference, vendor_id, amount, currency, occurred_at`

// LedgerRepository reads the platform's own transaction ledger. Only
// successful transactions take part in reconciliation and settlement.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetSystemTransactions(ctx context.Context, date domain.Date) ([]domain.SystemTransactionRecord, error) {
	records, err := r.query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE status = 'success' AND occurred_at >= $1 AND occurred_at < $2
		ORDER BY occurred_at, id`,
		date.Time(), date.End(),
	)
	if err != nil {
		return nil, fmt.Errorf("GetSystemTransactions: %w", err)
	}
	return records, nil
}

func (r *LedgerRepository) GetSettledTransactions(ctx context.Context, vendorID string, period domain.Period) ([]domain.SystemTransactionRecord, error) {
	records, err := r.query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE status = 'success' AND vendor_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at, id`,
		vendorID, period.Start(), period.End(),
	)
	if err != nil {
		return nil, fmt.Errorf("GetSettledTransactions: %w", err)
	}
	return records, nil
}

func (r *LedgerRepository) query(ctx context.Context, query string, args ...any) ([]domain.SystemTransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.SystemTransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return records, nil
}

func scanTransaction(s scanner) (*domain.SystemTransactionRecord, error) {
	var rec domain.SystemTransactionRecord
	var amount decimal.Decimal
	var occurredAt time.Time

	if err := s.Scan(&rec.ID, &rec.Reference, &rec.VendorID, &amount, &rec.Currency, &occurredAt); err != nil {
		return nil, err
	}

	cents, err := domain.AmountFromDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", rec.ID, err)
	}
	rec.Amount = cents
	rec.Timestamp = occurredAt.UTC()
	return &rec, nil
}
