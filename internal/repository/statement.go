package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

// pgLockNotAvailable is raised by FOR UPDATE NOWAIT when another transaction
// holds the row.
const pgLockNotAvailable = "55P03"

const statementColumns = `vendor_id, period, vendor_name, currency, total_transactions,
	total_amount, commission_rate, commission, net_amount, status,
	generated_at, sent_at, created_at`

type StatementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

func (r *StatementRepository) Get(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM vendor_statements WHERE vendor_id = $1 AND period = $2`,
		vendorID, period.String(),
	)
	st, err := scanStatement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return st, nil
}

// List returns statements ordered by period (newest first), then vendor.
// Zero-valued filters match everything.
func (r *StatementRepository) List(ctx context.Context, period domain.Period, vendorID string) ([]domain.VendorStatement, error) {
	var (
		conds []string
		args  []any
	)
	if !period.IsZero() {
		args = append(args, period.String())
		conds = append(conds, fmt.Sprintf("period = $%d", len(args)))
	}
	if vendorID != "" {
		args = append(args, vendorID)
		conds = append(conds, fmt.Sprintf("vendor_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statementColumns+` FROM vendor_statements`+where+` ORDER BY period DESC, vendor_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.VendorStatement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return out, nil
}

// SaveDraft stores st unless a statement for the same vendor and period has
// already left draft. It returns the row as stored, which is the existing
// immutable statement in that case.
func (r *StatementRepository) SaveDraft(ctx context.Context, st *domain.VendorStatement) (*domain.VendorStatement, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO vendor_statements (`+statementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'draft', NULL, NULL, $10)
		ON CONFLICT (vendor_id, period) DO UPDATE SET
			vendor_name = EXCLUDED.vendor_name,
			currency = EXCLUDED.currency,
			total_transactions = EXCLUDED.total_transactions,
			total_amount = EXCLUDED.total_amount,
			commission_rate = EXCLUDED.commission_rate,
			commission = EXCLUDED.commission,
			net_amount = EXCLUDED.net_amount,
			created_at = EXCLUDED.created_at
		WHERE vendor_statements.status = 'draft'
		RETURNING `+statementColumns,
		st.VendorID, st.Period.String(), st.VendorName, st.Currency, st.TotalTransactions,
		st.TotalAmount, st.CommissionRate, st.Commission, st.NetAmount, st.CreatedAt,
	)
	saved, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.Get(ctx, st.VendorID, st.Period)
		if getErr != nil {
			return nil, fmt.Errorf("SaveDraft: %w", getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("SaveDraft: %w", err)
	}
	return saved, nil
}

// LockForUpdate claims the statement row for the rest of tx. A row already
// claimed by another transaction fails fast with ErrVersionConflict.
func (r *StatementRepository) LockForUpdate(ctx context.Context, tx *sql.Tx, vendorID string, period domain.Period) (*domain.VendorStatement, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM vendor_statements
		WHERE vendor_id = $1 AND period = $2 FOR UPDATE NOWAIT`,
		vendorID, period.String(),
	)
	st, err := scanStatement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("LockForUpdate: %w", domain.ErrNotFound)
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgLockNotAvailable {
			return nil, fmt.Errorf("LockForUpdate: %s %s: %w", vendorID, period, domain.ErrVersionConflict)
		}
		return nil, fmt.Errorf("LockForUpdate: %w", err)
	}
	return st, nil
}

// Transition moves a statement from one status to the next in a single
// compare-and-set statement, stamping generated_at or sent_at.
func (r *StatementRepository) Transition(ctx context.Context, tx *sql.Tx, vendorID string, period domain.Period, from, to domain.StatementStatus, at time.Time) (*domain.VendorStatement, error) {
	var stamp string
	switch to {
	case domain.StatementStatusGenerated:
		stamp = "generated_at"
	case domain.StatementStatusSent:
		stamp = "sent_at"
	default:
		return nil, fmt.Errorf("Transition: to %s: %w", to, domain.ErrInvalidTransition)
	}

	row := tx.QueryRowContext(ctx,
		`UPDATE vendor_statements SET status = $4, `+stamp+` = $5
		WHERE vendor_id = $1 AND period = $2 AND status = $3
		RETURNING `+statementColumns,
		vendorID, period.String(), from, to, at,
	)
	st, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		var current domain.StatementStatus
		getErr := tx.QueryRowContext(ctx,
			`SELECT status FROM vendor_statements WHERE vendor_id = $1 AND period = $2`,
			vendorID, period.String(),
		).Scan(&current)
		if errors.Is(getErr, sql.ErrNoRows) {
			return nil, fmt.Errorf("Transition: %w", domain.ErrNotFound)
		}
		if getErr != nil {
			return nil, fmt.Errorf("Transition: %w", getErr)
		}
		return nil, fmt.Errorf("Transition: %s is %s, not %s: %w", vendorID, current, from, domain.ErrInvalidTransition)
	}
	if err != nil {
		return nil, fmt.Errorf("Transition: %w", err)
	}
	return st, nil
}

func scanStatement(s scanner) (*domain.VendorStatement, error) {
	var st domain.VendorStatement
	var period string

	err := s.Scan(
		&st.VendorID, &period, &st.VendorName, &st.Currency, &st.TotalTransactions,
		&st.TotalAmount, &st.CommissionRate, &st.Commission, &st.NetAmount, &st.Status,
		&st.GeneratedAt, &st.SentAt, &st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, fmt.Errorf("statement %s: %w", st.VendorID, err)
	}
	st.Period = p
	return &st, nil
}
