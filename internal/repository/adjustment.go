package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

type AdjustmentRepository struct {
	db *sql.DB
}

func NewAdjustmentRepository(db *sql.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

func (r *AdjustmentRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Adjustment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO reconciliation_adjustments (id, exception_id, recon_date, amount, approved_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ExceptionID, a.Date.String(), a.Amount, a.ApprovedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// SumByDate totals the adjustments of date whose exception has not been
// superseded by a later run.
func (r *AdjustmentRepository) SumByDate(ctx context.Context, tx *sql.Tx, date domain.Date) (int64, error) {
	var total int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(a.amount), 0)::BIGINT
		FROM reconciliation_adjustments a
		JOIN reconciliation_exceptions e ON e.id = a.exception_id
		WHERE a.recon_date = $1 AND e.superseded_at IS NULL`,
		date.String(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("SumByDate: %w", err)
	}
	return total, nil
}

func (r *AdjustmentRepository) ListByDate(ctx context.Context, date domain.Date) ([]domain.Adjustment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, exception_id, recon_date, amount, approved_by, created_at
		FROM reconciliation_adjustments WHERE recon_date = $1 ORDER BY created_at, id`,
		date.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("ListByDate: %w", err)
	}
	defer rows.Close()

	var out []domain.Adjustment
	for rows.Next() {
		var a domain.Adjustment
		var d sql.NullTime
		if err := rows.Scan(&a.ID, &a.ExceptionID, &d, &a.Amount, &a.ApprovedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByDate: scan: %w", err)
		}
		a.Date = domain.DateOf(d.Time)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByDate: rows: %w", err)
	}
	return out, nil
}
