package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReconciliationStatus string

const (
	ReconciliationStatusPending       ReconciliationStatus = "pending"
	ReconciliationStatusInProgress    ReconciliationStatus = "in_progress"
	ReconciliationStatusCompleted     ReconciliationStatus = "completed"
	ReconciliationStatusPendingReview ReconciliationStatus = "pending_review"
)

func (s ReconciliationStatus) IsValid() bool {
	switch s {
	case ReconciliationStatusPending, ReconciliationStatusInProgress,
		ReconciliationStatusCompleted, ReconciliationStatusPendingReview:
		return true
	}
	return false
}

// DailyReconciliationSummary is the per-date outcome of a reconciliation run.
// BankAmount includes AdjustmentAmount, so SystemAmount - BankAmount == Variance
// always holds.
type DailyReconciliationSummary struct {
	Date             Date
	Status           ReconciliationStatus
	Currency         Currency
	SystemCount      int
	SystemAmount     int64
	BankCount        int
	BankAmount       int64
	AdjustmentAmount int64
	DiscrepancyCount int
	Variance         int64
	InputHash        string
	ProcessedBy      *string
	ProcessedAt      *time.Time
	UpdatedAt        time.Time
}

type Adjustment struct {
	ID          uuid.UUID
	ExceptionID uuid.UUID
	Date        Date
	Amount      int64
	ApprovedBy  string
	CreatedAt   time.Time
}

// SummaryTotals aggregates the stored summaries of one status.
type SummaryTotals struct {
	Status           ReconciliationStatus
	Days             int
	SystemAmount     int64
	BankAmount       int64
	AdjustmentAmount int64
	Variance         int64
}

// ExceptionCount is the number of live exceptions sharing a status, kind and
// priority.
type ExceptionCount struct {
	Status   ExceptionStatus
	Kind     ExceptionKind
	Priority Priority
	Count    int
}

// ReconciliationReport rolls up a date range. Dates without a stored summary
// are not counted; superseded exceptions are left out.
type ReconciliationReport struct {
	From                 Date
	To                   Date
	Currency             Currency
	Days                 int
	DaysByStatus         map[ReconciliationStatus]int
	SystemAmount         int64
	BankAmount           int64
	AdjustmentAmount     int64
	Variance             int64
	Exceptions           int
	ExceptionsByStatus   map[ExceptionStatus]int
	ExceptionsByKind     map[ExceptionKind]int
	ExceptionsByPriority map[Priority]int
}
