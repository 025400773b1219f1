package reconcile

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

// exceptionNamespace seeds the UUIDv5 exception IDs so the same discrepancy
// on the same date always gets the same ID.
var exceptionNamespace = uuid.MustParse("6f1d7a52-3c1e-4b8e-9a0c-2f4d1e7b9c30")

type PriorityThresholds struct {
	High   int64
	Medium int64
}

func DefaultPriorityThresholds() PriorityThresholds {
	return PriorityThresholds{High: 100_000, Medium: 10_000}
}

func (t PriorityThresholds) PriorityFor(amount int64) domain.Priority {
	a := abs(amount)
	switch {
	case a >= t.High:
		return domain.PriorityHigh
	case a >= t.Medium:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func ExceptionID(date domain.Date, kind domain.ExceptionKind, systemKey, bankKey string) uuid.UUID {
	name := date.String() + "|" + string(kind) + "|" + systemKey + "|" + bankKey
	return uuid.NewSHA1(exceptionNamespace, []byte(name))
}

// BuildExceptions creates one pending exception per discrepancy in result.
// The returned slice is sorted by ID.
func BuildExceptions(date domain.Date, result MatchResult, thresholds PriorityThresholds, now time.Time) []domain.ReconciliationException {
	var out []domain.ReconciliationException

	newException := func(kind domain.ExceptionKind, systemKey, bankKey string, systemRef, bankRef *string, amount int64, desc string) {
		out = append(out, domain.ReconciliationException{
			ID:          ExceptionID(date, kind, systemKey, bankKey),
			Date:        date,
			Kind:        kind,
			SystemRef:   systemRef,
			BankRef:     bankRef,
			Amount:      amount,
			Description: desc,
			Status:      domain.ExceptionStatusPending,
			Priority:    thresholds.PriorityFor(amount),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	for _, s := range result.UnmatchedSystem {
		newException(domain.ExceptionKindMissingBankRecord, s.ID, "",
			systemRef(s), nil, s.Amount,
			"System transaction not found in bank records")
	}

	for _, b := range result.UnmatchedBank {
		bankRef := b.BankRef
		if ref, dup := result.DuplicateOf[b.Key()]; dup {
			sysRef := ref
			newException(domain.ExceptionKindDuplicateBankRecord, ref, b.Key(),
				&sysRef, &bankRef, b.Amount,
				fmt.Sprintf("Duplicate transaction found in bank records for reference %s", ref))
			continue
		}
		var sysRef *string
		if b.Reference != "" {
			r := b.Reference
			sysRef = &r
		}
		newException(domain.ExceptionKindMissingSystemRecord, "", b.Key(),
			sysRef, &bankRef, b.Amount,
			"Bank record not found in system transactions")
	}

	for _, p := range result.Mismatched() {
		bankRef := p.Bank.BankRef
		newException(domain.ExceptionKindAmountMismatch, p.System.ID, p.Bank.Key(),
			systemRef(p.System), &bankRef, abs(p.AmountDelta()),
			fmt.Sprintf("Amount mismatch: system %s, bank %s",
				domain.FormatAmount(p.System.Amount), domain.FormatAmount(p.Bank.Amount)))
	}

	sort.Slice(out, func(i, j int) bool { return compareIDs(out[i].ID, out[j].ID) < 0 })
	return out
}

func systemRef(s domain.SystemTransactionRecord) *string {
	ref := s.Reference
	if ref == "" {
		ref = s.ID
	}
	return &ref
}

// MergeExceptions reconciles freshly built exceptions for a date with the
// ones already persisted for it. An exception whose ID survives keeps its
// lifecycle state (status, assignee, resolution, creation time); a resolved
// one is kept verbatim. Either way it is no longer superseded. Persisted
// exceptions that no longer occur are returned as superseded unless they
// already were.
func MergeExceptions(fresh, existing []domain.ReconciliationException) (merged []domain.ReconciliationException, superseded []uuid.UUID) {
	prior := make(map[uuid.UUID]domain.ReconciliationException, len(existing))
	for _, e := range existing {
		prior[e.ID] = e
	}

	seen := make(map[uuid.UUID]bool, len(fresh))
	merged = make([]domain.ReconciliationException, 0, len(fresh))
	for _, e := range fresh {
		seen[e.ID] = true
		p, ok := prior[e.ID]
		switch {
		case !ok:
			merged = append(merged, e)
		case p.Status.IsTerminal():
			p.SupersededAt = nil
			merged = append(merged, p)
		default:
			e.Status = p.Status
			e.AssignedTo = p.AssignedTo
			e.CreatedAt = p.CreatedAt
			merged = append(merged, e)
		}
	}

	for _, e := range existing {
		if !seen[e.ID] && e.SupersededAt == nil {
			superseded = append(superseded, e.ID)
		}
	}
	slices.SortFunc(superseded, compareIDs)

	return merged, superseded
}

// compareIDs orders IDs bytewise, the order Postgres sorts uuid columns in.
func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// OpenCount is the number of unresolved, non-superseded exceptions.
func OpenCount(exceptions []domain.ReconciliationException) int {
	n := 0
	for _, e := range exceptions {
		if e.IsOpen() {
			n++
		}
	}
	return n
}
