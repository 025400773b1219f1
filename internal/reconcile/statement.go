package reconcile

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

var one = decimal.NewFromInt(1)

// BuildStatement computes a draft statement for vendor over period from its
// settled transactions. The vendor's current commission rate is copied into
// the statement.
func BuildStatement(vendor domain.Vendor, period domain.Period, settled []domain.SystemTransactionRecord, conv Converter, now time.Time) (domain.VendorStatement, error) {
	if vendor.CommissionRate.IsNegative() || vendor.CommissionRate.GreaterThan(one) {
		return domain.VendorStatement{}, fmt.Errorf("BuildStatement: vendor %s commission rate %s: %w",
			vendor.ID, vendor.CommissionRate, domain.ErrInvalidRequest)
	}

	currency := vendor.Currency
	if currency == "" {
		currency = domain.CurrencyUSD
	}

	var total int64
	for _, t := range settled {
		if t.VendorID != vendor.ID {
			return domain.VendorStatement{}, fmt.Errorf("BuildStatement: transaction %s belongs to vendor %s: %w",
				t.ID, t.VendorID, domain.ErrInvalidRequest)
		}
		if t.Timestamp.Before(period.Start()) || !t.Timestamp.Before(period.End()) {
			return domain.VendorStatement{}, fmt.Errorf("BuildStatement: transaction %s outside %s: %w",
				t.ID, period, domain.ErrInvalidRequest)
		}
		amt, err := conv.Convert(t.Amount, t.Currency, currency)
		if err != nil {
			return domain.VendorStatement{}, fmt.Errorf("BuildStatement: %w", err)
		}
		if total, err = checkedAdd(total, amt); err != nil {
			return domain.VendorStatement{}, fmt.Errorf("BuildStatement: total: %w", err)
		}
	}

	commission := Commission(total, vendor.CommissionRate)

	return domain.VendorStatement{
		VendorID:          vendor.ID,
		VendorName:        vendor.BusinessName,
		Period:            period,
		Currency:          currency,
		TotalTransactions: len(settled),
		TotalAmount:       total,
		CommissionRate:    vendor.CommissionRate,
		Commission:        commission,
		NetAmount:         total - commission,
		Status:            domain.StatementStatusDraft,
		CreatedAt:         now,
	}, nil
}

// Commission is total x rate rounded half away from zero to the cent.
func Commission(total int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()
}
