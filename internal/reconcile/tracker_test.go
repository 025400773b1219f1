package reconcile

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

func TestPriorityFor(t *testing.T) {
	th := DefaultPriorityThresholds()

	tests := []struct {
		amount int64
		want   domain.Priority
	}{
		{amount: 100_000, want: domain.PriorityHigh},
		{amount: -250_000, want: domain.PriorityHigh},
		{amount: 99_999, want: domain.PriorityMedium},
		{amount: 10_000, want: domain.PriorityMedium},
		{amount: 9_999, want: domain.PriorityLow},
		{amount: 0, want: domain.PriorityLow},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, th.PriorityFor(tc.amount), "amount %d", tc.amount)
	}
}

func TestExceptionID_Stable(t *testing.T) {
	a := ExceptionID(testDate, domain.ExceptionKindMissingBankRecord, "TXN-1", "")
	b := ExceptionID(testDate, domain.ExceptionKindMissingBankRecord, "TXN-1", "")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, ExceptionID(testDate.AddDays(1), domain.ExceptionKindMissingBankRecord, "TXN-1", ""))
	assert.NotEqual(t, a, ExceptionID(testDate, domain.ExceptionKindAmountMismatch, "TXN-1", ""))
}

func TestBuildExceptions(t *testing.T) {
	now := time.Date(2024, time.January, 16, 1, 30, 0, 0, time.UTC)
	m := NewMatcher(MatchConfig{})

	res := m.Match(
		[]domain.SystemTransactionRecord{
			sysTxn("TXN-1", "REF-1", at(9, 0), 10000),
			sysTxn("TXN-2", "REF-2", at(9, 30), 5000),
			sysTxn("TXN-3", "REF-3", at(10, 0), 20000),
		},
		[]domain.BankRecord{
			bankTxn("BNK-1", "REF-1", at(9, 1), 10000),
			bankTxn("BNK-2", "REF-1", at(9, 2), 10000),
			bankTxn("BNK-3", "REF-3", at(10, 1), 19000),
			bankTxn("BNK-4", "", at(11, 0), 777),
		},
	)

	got := BuildExceptions(testDate, res, DefaultPriorityThresholds(), now)
	require.Len(t, got, 4)

	byKind := map[domain.ExceptionKind]domain.ReconciliationException{}
	for i, e := range got {
		if i > 0 {
			assert.Negative(t, compareIDs(got[i-1].ID, e.ID))
		}
		assert.Equal(t, domain.ExceptionStatusPending, e.Status)
		assert.Equal(t, testDate, e.Date)
		assert.Equal(t, now, e.CreatedAt)
		byKind[e.Kind] = e
	}

	missingBank := byKind[domain.ExceptionKindMissingBankRecord]
	require.NotNil(t, missingBank.SystemRef)
	assert.Equal(t, "REF-2", *missingBank.SystemRef)
	assert.Nil(t, missingBank.BankRef)
	assert.Equal(t, int64(5000), missingBank.Amount)
	assert.Equal(t, "System transaction not found in bank records", missingBank.Description)

	dup := byKind[domain.ExceptionKindDuplicateBankRecord]
	require.NotNil(t, dup.BankRef)
	assert.Equal(t, "BNK-2", *dup.BankRef)
	assert.Contains(t, dup.Description, "REF-1")

	mismatch := byKind[domain.ExceptionKindAmountMismatch]
	assert.Equal(t, int64(1000), mismatch.Amount)
	assert.Equal(t, domain.PriorityLow, mismatch.Priority)
	assert.Equal(t, "Amount mismatch: system 200.00, bank 190.00", mismatch.Description)

	missingSystem := byKind[domain.ExceptionKindMissingSystemRecord]
	require.NotNil(t, missingSystem.BankRef)
	assert.Equal(t, "BNK-4", *missingSystem.BankRef)
	assert.Nil(t, missingSystem.SystemRef)

	again := BuildExceptions(testDate, res, DefaultPriorityThresholds(), now)
	assert.Equal(t, got, again)
}

func TestMergeExceptions(t *testing.T) {
	earlier := time.Date(2024, time.January, 16, 1, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)
	assignee := "ops@evend"

	mk := func(systemKey string, status domain.ExceptionStatus, createdAt time.Time) domain.ReconciliationException {
		return domain.ReconciliationException{
			ID:        ExceptionID(testDate, domain.ExceptionKindMissingBankRecord, systemKey, ""),
			Date:      testDate,
			Kind:      domain.ExceptionKindMissingBankRecord,
			Status:    status,
			CreatedAt: createdAt,
		}
	}

	investigating := mk("TXN-1", domain.ExceptionStatusInvestigating, earlier)
	investigating.AssignedTo = &assignee
	resolved := mk("TXN-2", domain.ExceptionStatusResolved, earlier)
	resolved.Resolution = &domain.Resolution{Action: domain.ResolutionActionBankError, Notes: "late credit", ApprovedBy: "lead"}
	gone := mk("TXN-3", domain.ExceptionStatusPending, earlier)
	goneResolved := mk("TXN-4", domain.ExceptionStatusResolved, earlier)
	alreadyGone := mk("TXN-6", domain.ExceptionStatusPending, earlier)
	alreadyGone.SupersededAt = &earlier
	returning := mk("TXN-5", domain.ExceptionStatusInvestigating, earlier)
	returning.SupersededAt = &earlier

	fresh := []domain.ReconciliationException{
		mk("TXN-1", domain.ExceptionStatusPending, later),
		mk("TXN-2", domain.ExceptionStatusPending, later),
		mk("TXN-5", domain.ExceptionStatusPending, later),
	}

	merged, superseded := MergeExceptions(fresh, []domain.ReconciliationException{
		investigating, resolved, gone, goneResolved, alreadyGone, returning,
	})

	require.Len(t, merged, 3)
	assert.Equal(t, domain.ExceptionStatusInvestigating, merged[0].Status)
	assert.Equal(t, &assignee, merged[0].AssignedTo)
	assert.Equal(t, earlier, merged[0].CreatedAt)
	assert.Equal(t, resolved, merged[1])
	assert.Equal(t, domain.ExceptionStatusInvestigating, merged[2].Status, "a returning exception keeps its state")
	assert.Nil(t, merged[2].SupersededAt)
	assert.Equal(t, earlier, merged[2].CreatedAt)

	wantSuperseded := []uuid.UUID{gone.ID, goneResolved.ID}
	slices.SortFunc(wantSuperseded, compareIDs)
	assert.Equal(t, wantSuperseded, superseded)
	assert.Equal(t, 2, OpenCount(merged))
}

func TestBuildExceptions_IdenticalBankLinesGetDistinctIDs(t *testing.T) {
	line := bankTxn("BNK-1", "", at(9, 5), 5000)
	res := NewMatcher(MatchConfig{}).Match(nil, []domain.BankRecord{line, line, line})

	got := BuildExceptions(testDate, res, DefaultPriorityThresholds(), at(23, 0))
	require.Len(t, got, 3)

	ids := map[uuid.UUID]bool{}
	for _, e := range got {
		ids[e.ID] = true
		require.NotNil(t, e.BankRef)
		assert.Equal(t, "BNK-1", *e.BankRef, "stored reference is the bank's own")
	}
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, ExceptionID(testDate, domain.ExceptionKindMissingSystemRecord, "", "BNK-1#3"))
}
