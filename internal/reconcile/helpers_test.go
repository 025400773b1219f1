package reconcile

import (
	"time"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/fx"
)

var (
	testDate = domain.NewDate(2024, time.January, 15)
	testConv = fx.NewRateService()
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.January, 15, hour, minute, 0, 0, time.UTC)
}

func sysTxn(id, ref string, ts time.Time, amount int64) domain.SystemTransactionRecord {
	return domain.SystemTransactionRecord{
		ID:        id,
		Reference: ref,
		Timestamp: ts,
		VendorID:  "V-001",
		Amount:    amount,
		Currency:  domain.CurrencyUSD,
	}
}

func bankTxn(bankRef, ref string, ts time.Time, amount int64) domain.BankRecord {
	return domain.BankRecord{
		BankRef:   bankRef,
		Reference: ref,
		Timestamp: ts,
		Amount:    amount,
		Currency:  domain.CurrencyUSD,
	}
}
