package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

// commissionRateScale matches the NUMERIC(7, 6) column.
const commissionRateScale = 6

type CommissionChangeRequest struct {
	Rate      decimal.Decimal
	ChangedBy string
	Reason    string
}

type VendorService struct {
	vendors vendorRepository
	db      *sql.DB
	now     func() time.Time
}

func NewVendorService(vendors vendorRepository, db *sql.DB) *VendorService {
	return &VendorService{
		vendors: vendors,
		db:      db,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *VendorService) Get(ctx context.Context, id string) (*domain.Vendor, error) {
	v, err := s.vendors.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return v, nil
}

// UpdateCommissionRate changes an active vendor's rate and records the change
// in the same transaction. Setting the current rate again is a no-op and
// writes no history.
func (s *VendorService) UpdateCommissionRate(ctx context.Context, id string, req CommissionChangeRequest) (*domain.Vendor, error) {
	id = strings.TrimSpace(id)
	if err := validateCommissionChange(id, req); err != nil {
		return nil, fmt.Errorf("UpdateCommissionRate: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UpdateCommissionRate: begin: %w", err)
	}
	defer tx.Rollback()

	v, err := s.vendors.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateCommissionRate: %w", err)
	}
	if v.Status != domain.VendorStatusActive {
		return nil, fmt.Errorf("UpdateCommissionRate: %s is %s: %w", id, v.Status, domain.ErrVendorInactive)
	}
	if v.CommissionRate.Equal(req.Rate) {
		return v, nil
	}

	change := &domain.CommissionRateChange{
		ID:        uuid.New(),
		VendorID:  id,
		OldRate:   v.CommissionRate,
		NewRate:   req.Rate,
		ChangedBy: strings.TrimSpace(req.ChangedBy),
		Reason:    strings.TrimSpace(req.Reason),
		ChangedAt: s.now(),
	}
	if err := s.vendors.SetCommissionRate(ctx, tx, id, req.Rate); err != nil {
		return nil, fmt.Errorf("UpdateCommissionRate: %w", err)
	}
	if err := s.vendors.InsertRateChange(ctx, tx, change); err != nil {
		return nil, fmt.Errorf("UpdateCommissionRate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("UpdateCommissionRate: commit: %w", err)
	}

	logging.FromContext(ctx).Info("commission rate changed",
		"vendor_id", id,
		"old_rate", change.OldRate.String(),
		"new_rate", change.NewRate.String(),
		"changed_by", change.ChangedBy,
	)

	v.CommissionRate = req.Rate
	return v, nil
}

// CommissionHistory returns the vendor's rate changes, newest first.
func (s *VendorService) CommissionHistory(ctx context.Context, id string) ([]domain.CommissionRateChange, error) {
	id = strings.TrimSpace(id)
	if _, err := s.vendors.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("CommissionHistory: %w", err)
	}
	out, err := s.vendors.ListRateChanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("CommissionHistory: %w", err)
	}
	return out, nil
}

func validateCommissionChange(id string, req CommissionChangeRequest) error {
	if id == "" {
		return fmt.Errorf("vendor id required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.ChangedBy) == "" {
		return fmt.Errorf("changed_by required: %w", domain.ErrInvalidRequest)
	}
	if req.Rate.IsNegative() || req.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission rate %s outside [0, 1]: %w", req.Rate, domain.ErrInvalidRequest)
	}
	if !req.Rate.Equal(req.Rate.Truncate(commissionRateScale)) {
		return fmt.Errorf("commission rate %s has more than %d decimal places: %w", req.Rate, commissionRateScale, domain.ErrInvalidRequest)
	}
	return nil
}
