package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VendorType string

const (
	VendorTypeVendor     VendorType = "vendor"
	VendorTypeAgent      VendorType = "agent"
	VendorTypeAggregator VendorType = "aggregator"
)

type VendorStatus string

const (
	VendorStatusActive    VendorStatus = "active"
	VendorStatusSuspended VendorStatus = "suspended"
	VendorStatusPending   VendorStatus = "pending"
)

type Vendor struct {
	ID             string
	BusinessName   string
	Type           VendorType
	Status         VendorStatus
	CommissionRate decimal.Decimal
	Currency       Currency
	Email          string
	CreatedAt      time.Time
}

// CommissionRateChange records one edit of a vendor's commission rate.
// Statements already generated keep the rate they were built with.
type CommissionRateChange struct {
	ID        uuid.UUID
	VendorID  string
	OldRate   decimal.Decimal
	NewRate   decimal.Decimal
	ChangedBy string
	Reason    string
	ChangedAt time.Time
}
