package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExceptionKind string

const (
	ExceptionKindMissingBankRecord   ExceptionKind = "missing_bank_record"
	ExceptionKindMissingSystemRecord ExceptionKind = "missing_system_record"
	ExceptionKindAmountMismatch      ExceptionKind = "amount_mismatch"
	ExceptionKindDuplicateBankRecord ExceptionKind = "duplicate_bank_record"
)

func (k ExceptionKind) IsValid() bool {
	switch k {
	case ExceptionKindMissingBankRecord, ExceptionKindMissingSystemRecord,
		ExceptionKindAmountMismatch, ExceptionKindDuplicateBankRecord:
		return true
	}
	return false
}

type ExceptionStatus string

const (
	ExceptionStatusPending       ExceptionStatus = "pending"
	ExceptionStatusInvestigating ExceptionStatus = "investigating"
	ExceptionStatusResolved      ExceptionStatus = "resolved"
)

func (s ExceptionStatus) IsValid() bool {
	switch s {
	case ExceptionStatusPending, ExceptionStatusInvestigating, ExceptionStatusResolved:
		return true
	}
	return false
}

func (s ExceptionStatus) IsTerminal() bool {
	return s == ExceptionStatusResolved
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type ResolutionAction string

const (
	ResolutionActionManualAdjustment   ResolutionAction = "manual_adjustment"
	ResolutionActionBankError          ResolutionAction = "bank_error"
	ResolutionActionSystemCorrection   ResolutionAction = "system_correction"
	ResolutionActionVendorNotification ResolutionAction = "vendor_notification"
)

func (a ResolutionAction) IsValid() bool {
	switch a {
	case ResolutionActionManualAdjustment, ResolutionActionBankError,
		ResolutionActionSystemCorrection, ResolutionActionVendorNotification:
		return true
	}
	return false
}

type Resolution struct {
	Action           ResolutionAction
	Notes            string
	ApprovedBy       string
	AdjustmentAmount *int64
	ResolvedAt       time.Time
}

// ReconciliationException is one discrepancy found by a run. SupersededAt is
// set once a later run of the same date no longer produces it; superseded
// exceptions are kept for audit but no longer count towards the summary.
type ReconciliationException struct {
	ID           uuid.UUID
	Date         Date
	Kind         ExceptionKind
	SystemRef    *string
	BankRef      *string
	Amount       int64
	Description  string
	Status       ExceptionStatus
	AssignedTo   *string
	Priority     Priority
	Resolution   *Resolution
	SupersededAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (e ReconciliationException) IsOpen() bool {
	return e.SupersededAt == nil && !e.Status.IsTerminal()
}

type ExceptionFilter struct {
	DateFrom   *Date
	DateTo     *Date
	Status     *ExceptionStatus
	Kind       *ExceptionKind
	Priority   *Priority
	AssignedTo *string
	// IncludeSuperseded also returns exceptions a later run dropped.
	IncludeSuperseded bool
	Limit             int
	Offset            int
}
