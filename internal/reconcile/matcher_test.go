package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

func TestMatch_ExactReference(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(9, 0), 5000)},
		[]domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 5), 5000)},
	)

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "TXN-1", res.Matched[0].System.ID)
	assert.Equal(t, "BNK-1", res.Matched[0].Bank.BankRef)
	assert.Empty(t, res.UnmatchedSystem)
	assert.Empty(t, res.UnmatchedBank)
	assert.Empty(t, res.Mismatched())
}

func TestMatch_ReferenceWithDifferentAmountIsMismatchedPair(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(9, 0), 5000)},
		[]domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 5), 4950)},
	)

	require.Len(t, res.Matched, 1)
	mismatched := res.Mismatched()
	require.Len(t, mismatched, 1)
	assert.Equal(t, int64(50), mismatched[0].AmountDelta())
}

func TestMatch_MissingBankRecord(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	res := m.Match(
		[]domain.SystemTransactionRecord{
			sysTxn("TXN-1", "REF-1", at(9, 0), 10000),
			sysTxn("TXN-2", "REF-2", at(10, 0), 5000),
		},
		[]domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 5), 10000)},
	)

	require.Len(t, res.Matched, 1)
	require.Len(t, res.UnmatchedSystem, 1)
	assert.Equal(t, "TXN-2", res.UnmatchedSystem[0].ID)
	assert.Empty(t, res.UnmatchedBank)
}

func TestMatch_DuplicateBankRecords(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(9, 0), 5000)},
		[]domain.BankRecord{
			bankTxn("BNK-2", "REF-1", at(11, 0), 5000),
			bankTxn("BNK-1", "REF-1", at(9, 30), 5000),
		},
	)

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "BNK-1", res.Matched[0].Bank.BankRef, "earliest bank record wins")
	require.Len(t, res.UnmatchedBank, 1)
	assert.Equal(t, "BNK-2", res.UnmatchedBank[0].BankRef)
	assert.True(t, res.IsDuplicate(res.UnmatchedBank[0]))
	assert.Equal(t, "REF-1", res.DuplicateOf["BNK-2"])
}

func TestMatch_FallbackOnAmountAndDate(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	res := m.Match(
		[]domain.SystemTransactionRecord{
			sysTxn("TXN-2", "REF-2", at(14, 0), 2500),
			sysTxn("TXN-1", "REF-1", at(8, 0), 2500),
			sysTxn("TXN-3", "REF-3", at(7, 0), 9900),
		},
		[]domain.BankRecord{bankTxn("BNK-1", "", at(16, 0), 2500)},
	)

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "TXN-1", res.Matched[0].System.ID, "earliest candidate wins the tie")
	assert.Len(t, res.UnmatchedSystem, 2)
}

func TestMatch_FallbackRespectsDateAndCurrency(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	nextDay := bankTxn("BNK-1", "", at(9, 0).Add(24*time.Hour), 2500)
	otherCurrency := bankTxn("BNK-2", "", at(9, 0), 2500)
	otherCurrency.Currency = domain.CurrencyZAR

	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(8, 0), 2500)},
		[]domain.BankRecord{nextDay, otherCurrency},
	)

	assert.Empty(t, res.Matched)
	assert.Len(t, res.UnmatchedSystem, 1)
	assert.Len(t, res.UnmatchedBank, 2)
	assert.Empty(t, res.DuplicateOf)
}

func TestMatch_Tolerances(t *testing.T) {
	m := NewMatcher(MatchConfig{AmountToleranceCents: 5, DateToleranceDays: 1})

	res := m.Match(
		[]domain.SystemTransactionRecord{
			sysTxn("TXN-1", "REF-1", at(8, 0), 2503),
			sysTxn("TXN-2", "REF-2", at(9, 0), 2500),
		},
		[]domain.BankRecord{bankTxn("BNK-1", "", at(10, 0).Add(24*time.Hour), 2500)},
	)

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "TXN-2", res.Matched[0].System.ID, "smallest amount delta wins before timestamp")
}

func TestMatch_ReferencePassRunsBeforeFallback(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	// The unreferenced bank line is earlier, but must not take the system
	// record that a later line names explicitly.
	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(8, 0), 2500)},
		[]domain.BankRecord{
			bankTxn("BNK-1", "", at(8, 30), 2500),
			bankTxn("BNK-2", "REF-1", at(12, 0), 2500),
		},
	)

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "BNK-2", res.Matched[0].Bank.BankRef)
	require.Len(t, res.UnmatchedBank, 1)
	assert.Equal(t, "BNK-1", res.UnmatchedBank[0].BankRef)
	assert.Equal(t, "REF-1", res.DuplicateOf["BNK-1"], "repeats the pair already made by reference")
}

func TestMatch_UnknownReferenceFallsBack(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(8, 0), 2500)},
		[]domain.BankRecord{bankTxn("BNK-1", "REF-TYPO", at(8, 30), 2500)},
	)

	require.Len(t, res.Matched, 1)
	assert.Empty(t, res.DuplicateOf)
}

func TestMatch_EveryRecordAccountedForOnce(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	system := []domain.SystemTransactionRecord{
		sysTxn("TXN-1", "REF-1", at(8, 0), 1000),
		sysTxn("TXN-2", "REF-2", at(8, 10), 2000),
		sysTxn("TXN-3", "REF-3", at(8, 20), 3000),
		sysTxn("TXN-4", "REF-4", at(8, 30), 4000),
		sysTxn("TXN-5", "", at(8, 40), 5000),
	}
	bank := []domain.BankRecord{
		bankTxn("BNK-1", "REF-1", at(9, 0), 1000),
		bankTxn("BNK-2", "REF-1", at(9, 1), 1000),
		bankTxn("BNK-3", "REF-2", at(9, 2), 1999),
		bankTxn("BNK-4", "", at(9, 3), 5000),
		bankTxn("BNK-5", "", at(9, 4), 7777),
	}

	res := m.Match(system, bank)

	assert.Equal(t, len(system), len(res.Matched)+len(res.UnmatchedSystem))
	assert.Equal(t, len(bank), len(res.Matched)+len(res.UnmatchedBank))

	sysSeen := map[string]int{}
	bankSeen := map[string]int{}
	for _, p := range res.Matched {
		sysSeen[p.System.ID]++
		bankSeen[p.Bank.BankRef]++
	}
	for _, s := range res.UnmatchedSystem {
		sysSeen[s.ID]++
	}
	for _, b := range res.UnmatchedBank {
		bankSeen[b.BankRef]++
	}
	for _, s := range system {
		assert.Equal(t, 1, sysSeen[s.ID], s.ID)
	}
	for _, b := range bank {
		assert.Equal(t, 1, bankSeen[b.BankRef], b.BankRef)
	}
}

func TestMatch_InputOrderIrrelevant(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	system := []domain.SystemTransactionRecord{
		sysTxn("TXN-1", "REF-1", at(8, 0), 1000),
		sysTxn("TXN-2", "", at(8, 10), 2000),
		sysTxn("TXN-3", "", at(8, 10), 2000),
	}
	bank := []domain.BankRecord{
		bankTxn("BNK-1", "REF-1", at(9, 0), 1000),
		bankTxn("BNK-2", "", at(9, 2), 2000),
	}
	reversedSystem := []domain.SystemTransactionRecord{system[2], system[1], system[0]}
	reversedBank := []domain.BankRecord{bank[1], bank[0]}

	assert.Equal(t, m.Match(system, bank), m.Match(reversedSystem, reversedBank))
}

func TestMatch_IdenticalBankLines(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	line := bankTxn("BNK-1", "REF-1", at(9, 5), 5000)
	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(9, 0), 5000)},
		[]domain.BankRecord{line, line},
	)

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "BNK-1", res.Matched[0].Bank.Key())
	require.Len(t, res.UnmatchedBank, 1)
	assert.Equal(t, "BNK-1#2", res.UnmatchedBank[0].Key())
	assert.True(t, res.IsDuplicate(res.UnmatchedBank[0]))
	assert.Equal(t, map[string]string{"BNK-1#2": "REF-1"}, res.DuplicateOf)
}

func TestMatch_UnreferencedRepeatOfPairedRecordIsDuplicate(t *testing.T) {
	tests := []struct {
		name    string
		bank    []domain.BankRecord
		wantDup map[string]string
	}{
		{
			name: "same amount and date",
			bank: []domain.BankRecord{
				bankTxn("BNK-1", "", at(9, 30), 5000),
				bankTxn("BNK-2", "", at(9, 31), 5000),
			},
			wantDup: map[string]string{"BNK-2": "REF-1"},
		},
		{
			name: "different amount stays missing",
			bank: []domain.BankRecord{
				bankTxn("BNK-1", "", at(9, 30), 5000),
				bankTxn("BNK-2", "", at(9, 31), 5100),
			},
			wantDup: map[string]string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := NewMatcher(MatchConfig{}).Match(
				[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(9, 0), 5000)},
				tc.bank,
			)

			require.Len(t, res.Matched, 1)
			assert.Equal(t, "BNK-1", res.Matched[0].Bank.BankRef, "earliest line takes the pair")
			require.Len(t, res.UnmatchedBank, 1)
			assert.Equal(t, tc.wantDup, res.DuplicateOf)
		})
	}
}

func TestNewMatcher_ClampsDateTolerance(t *testing.T) {
	m := NewMatcher(MatchConfig{DateToleranceDays: 365})

	res := m.Match(
		[]domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(8, 0), 2500)},
		[]domain.BankRecord{bankTxn("BNK-1", "", at(8, 0).AddDate(0, 0, MaxDateToleranceDays+1), 2500)},
	)

	assert.Empty(t, res.Matched)
}
