package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

// SeedVendor inserts an active USD vendor with the given commission rate,
// e.g. "0.025".
func SeedVendor(t *testing.T, db *sql.DB, id, name, rate string) domain.Vendor {
	t.Helper()

	v := domain.Vendor{
		ID:             id,
		BusinessName:   name,
		Type:           domain.VendorTypeVendor,
		Status:         domain.VendorStatusActive,
		CommissionRate: decimal.RequireFromString(rate),
		Currency:       domain.CurrencyUSD,
		Email:          id + "@vendors.test",
		CreatedAt:      time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO vendors (id, business_name, vendor_type, status, commission_rate, currency, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID, v.BusinessName, v.Type, v.Status, v.CommissionRate, v.Currency, v.Email, v.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed vendor %s: %v", id, err)
	}
	return v
}

func SetVendorStatus(t *testing.T, db *sql.DB, id string, status domain.VendorStatus) {
	t.Helper()

	if _, err := db.Exec(`UPDATE vendors SET status = $1 WHERE id = $2`, status, id); err != nil {
		t.Fatalf("set vendor %s status: %v", id, err)
	}
}

// SeedTransaction inserts a ledger row. amount is a decimal string such as
// "50.00".
func SeedTransaction(t *testing.T, db *sql.DB, id, reference, vendorID, amount string, status domain.TransactionStatus, at time.Time) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO transactions (id, reference, vendor_id, amount, currency, status, occurred_at)
		 VALUES ($1, $2, $3, $4, 'USD', $5, $6)`,
		id, reference, vendorID, decimal.RequireFromString(amount), status, at,
	)
	if err != nil {
		t.Fatalf("seed transaction %s: %v", id, err)
	}
}

func CountExceptions(t *testing.T, db *sql.DB, date domain.Date) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM reconciliation_exceptions WHERE recon_date = $1 AND superseded_at IS NULL`,
		date.String(),
	).Scan(&count)
	if err != nil {
		t.Fatalf("count exceptions for %s: %v", date, err)
	}
	return count
}

func CountSummaries(t *testing.T, db *sql.DB, date domain.Date) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM reconciliation_summaries WHERE recon_date = $1`, date.String()).Scan(&count)
	if err != nil {
		t.Fatalf("count summaries for %s: %v", date, err)
	}
	return count
}

func CountAdjustments(t *testing.T, db *sql.DB, exceptionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM reconciliation_adjustments WHERE exception_id = $1`, exceptionID).Scan(&count)
	if err != nil {
		t.Fatalf("count adjustments for %s: %v", exceptionID, err)
	}
	return count
}
