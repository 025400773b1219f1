package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type StatementStatus string

const (
	StatementStatusDraft     StatementStatus = "draft"
	StatementStatusGenerated StatementStatus = "generated"
	StatementStatusSent      StatementStatus = "sent"
)

func (s StatementStatus) IsValid() bool {
	switch s {
	case StatementStatusDraft, StatementStatusGenerated, StatementStatusSent:
		return true
	}
	return false
}

// Next returns the only status s may move to.
func (s StatementStatus) Next() (StatementStatus, bool) {
	switch s {
	case StatementStatusDraft:
		return StatementStatusGenerated, true
	case StatementStatusGenerated:
		return StatementStatusSent, true
	}
	return "", false
}

// VendorStatement snapshots the commission rate at generation time; later
// rate edits on the vendor do not touch existing statements.
type VendorStatement struct {
	VendorID          string
	VendorName        string
	Period            Period
	Currency          Currency
	TotalTransactions int
	TotalAmount       int64
	CommissionRate    decimal.Decimal
	Commission        int64
	NetAmount         int64
	Status            StatementStatus
	GeneratedAt       *time.Time
	SentAt            *time.Time
	CreatedAt         time.Time
}
