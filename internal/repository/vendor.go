package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

const vendorColumns = `id, business_name, vendor_type, status, commission_rate, currency, email, created_at`

type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id,
	)
	v, err := scanVendor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return v, nil
}

func (r *VendorRepository) ListActive(ctx context.Context) ([]domain.Vendor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE status = 'active' ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	var vendors []domain.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		vendors = append(vendors, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows: %w", err)
	}
	return vendors, nil
}

// GetForUpdate locks the vendor row for the rest of tx.
func (r *VendorRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Vendor, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1 FOR UPDATE`, id,
	)
	v, err := scanVendor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return v, nil
}

func (r *VendorRepository) SetCommissionRate(ctx context.Context, tx *sql.Tx, id string, rate decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE vendors SET commission_rate = $2 WHERE id = $1`, id, rate,
	)
	if err != nil {
		return fmt.Errorf("SetCommissionRate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetCommissionRate: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("SetCommissionRate: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *VendorRepository) InsertRateChange(ctx context.Context, tx *sql.Tx, c *domain.CommissionRateChange) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO commission_rate_history (id, vendor_id, old_rate, new_rate, changed_by, reason, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.VendorID, c.OldRate, c.NewRate, c.ChangedBy, c.Reason, c.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("InsertRateChange: %w", err)
	}
	return nil
}

// ListRateChanges returns the vendor's rate history, newest first. Changes
// of one vendor are serialized by the vendor row lock, so insertion order is
// change order.
func (r *VendorRepository) ListRateChanges(ctx context.Context, vendorID string) ([]domain.CommissionRateChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vendor_id, old_rate, new_rate, changed_by, reason, changed_at
		FROM commission_rate_history WHERE vendor_id = $1 ORDER BY seq DESC`,
		vendorID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListRateChanges: %w", err)
	}
	defer rows.Close()

	var out []domain.CommissionRateChange
	for rows.Next() {
		var c domain.CommissionRateChange
		if err := rows.Scan(&c.ID, &c.VendorID, &c.OldRate, &c.NewRate, &c.ChangedBy, &c.Reason, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("ListRateChanges: scan: %w", err)
		}
		c.ChangedAt = c.ChangedAt.In(time.UTC)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRateChanges: rows: %w", err)
	}
	return out, nil
}

func scanVendor(s scanner) (*domain.Vendor, error) {
	var v domain.Vendor
	err := s.Scan(&v.ID, &v.BusinessName, &v.Type, &v.Status, &v.CommissionRate, &v.Currency, &v.Email, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
