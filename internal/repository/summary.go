package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

const summaryColumns = `recon_date, status, currency, system_count, system_amount,
	bank_count, bank_amount, adjustment_amount, discrepancy_count, variance,
	input_hash, processed_by, processed_at, updated_at`

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) GetByDate(ctx context.Context, date domain.Date) (*domain.DailyReconciliationSummary, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM reconciliation_summaries WHERE recon_date = $1`, date.String(),
	)
	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByDate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByDate: %w", err)
	}
	return s, nil
}

func (r *SummaryRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, date domain.Date) (*domain.DailyReconciliationSummary, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM reconciliation_summaries WHERE recon_date = $1 FOR UPDATE`, date.String(),
	)
	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return s, nil
}

// List returns the summaries for dates in [from, to], newest first.
func (r *SummaryRepository) List(ctx context.Context, from, to domain.Date) ([]domain.DailyReconciliationSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM reconciliation_summaries
		WHERE recon_date >= $1 AND recon_date <= $2 ORDER BY recon_date DESC`,
		from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DailyReconciliationSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		summaries = append(summaries, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return summaries, nil
}

// Totals groups the summaries for dates in [from, to] by status.
func (r *SummaryRepository) Totals(ctx context.Context, from, to domain.Date) ([]domain.SummaryTotals, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*),
			COALESCE(SUM(system_amount), 0)::BIGINT,
			COALESCE(SUM(bank_amount), 0)::BIGINT,
			COALESCE(SUM(adjustment_amount), 0)::BIGINT,
			COALESCE(SUM(variance), 0)::BIGINT
		FROM reconciliation_summaries
		WHERE recon_date >= $1 AND recon_date <= $2
		GROUP BY status ORDER BY status`,
		from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("Totals: %w", err)
	}
	defer rows.Close()

	var out []domain.SummaryTotals
	for rows.Next() {
		var t domain.SummaryTotals
		if err := rows.Scan(&t.Status, &t.Days, &t.SystemAmount, &t.BankAmount, &t.AdjustmentAmount, &t.Variance); err != nil {
			return nil, fmt.Errorf("Totals: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Totals: rows: %w", err)
	}
	return out, nil
}

// Upsert writes the one summary row of s.Date, replacing any earlier one.
func (r *SummaryRepository) Upsert(ctx context.Context, tx *sql.Tx, s *domain.DailyReconciliationSummary) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO reconciliation_summaries (`+summaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (recon_date) DO UPDATE SET
			status = EXCLUDED.status,
			currency = EXCLUDED.currency,
			system_count = EXCLUDED.system_count,
			system_amount = EXCLUDED.system_amount,
			bank_count = EXCLUDED.bank_count,
			bank_amount = EXCLUDED.bank_amount,
			adjustment_amount = EXCLUDED.adjustment_amount,
			discrepancy_count = EXCLUDED.discrepancy_count,
			variance = EXCLUDED.variance,
			input_hash = EXCLUDED.input_hash,
			processed_by = EXCLUDED.processed_by,
			processed_at = EXCLUDED.processed_at,
			updated_at = EXCLUDED.updated_at`,
		s.Date.String(), s.Status, s.Currency, s.SystemCount, s.SystemAmount,
		s.BankCount, s.BankAmount, s.AdjustmentAmount, s.DiscrepancyCount, s.Variance,
		s.InputHash, s.ProcessedBy, s.ProcessedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func scanSummary(sc scanner) (*domain.DailyReconciliationSummary, error) {
	var s domain.DailyReconciliationSummary
	var date time.Time

	err := sc.Scan(
		&date, &s.Status, &s.Currency, &s.SystemCount, &s.SystemAmount,
		&s.BankCount, &s.BankAmount, &s.AdjustmentAmount, &s.DiscrepancyCount, &s.Variance,
		&s.InputHash, &s.ProcessedBy, &s.ProcessedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Date = domain.DateOf(date)
	return &s, nil
}
