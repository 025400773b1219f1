package reconcile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

func TestCalculateSummary(t *testing.T) {
	m := NewMatcher(MatchConfig{})

	tests := []struct {
		name              string
		system            []domain.SystemTransactionRecord
		bank              []domain.BankRecord
		wantStatus        domain.ReconciliationStatus
		wantVariance      int64
		wantDiscrepancies int
	}{
		{
			name:       "fully matched day completes",
			system:     []domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(9, 0), 5000)},
			bank:       []domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 1), 5000)},
			wantStatus: domain.ReconciliationStatusCompleted,
		},
		{
			name: "missing bank record needs review",
			system: []domain.SystemTransactionRecord{
				sysTxn("TXN-1", "REF-1", at(9, 0), 10000),
				sysTxn("TXN-2", "REF-2", at(9, 30), 5000),
			},
			bank:              []domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 1), 10000)},
			wantStatus:        domain.ReconciliationStatusPendingReview,
			wantVariance:      5000,
			wantDiscrepancies: 1,
		},
		{
			name:              "mismatched pair counts once",
			system:            []domain.SystemTransactionRecord{sysTxn("TXN-1", "REF-1", at(9, 0), 5000)},
			bank:              []domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 1), 5200)},
			wantStatus:        domain.ReconciliationStatusPendingReview,
			wantVariance:      -200,
			wantDiscrepancies: 1,
		},
		{
			name:       "empty day completes",
			wantStatus: domain.ReconciliationStatusCompleted,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := m.Match(tc.system, tc.bank)

			s, err := CalculateSummary(testDate, domain.CurrencyUSD, res, testConv)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, s.Status)
			assert.Equal(t, tc.wantVariance, s.Variance)
			assert.Equal(t, tc.wantDiscrepancies, s.DiscrepancyCount)
			assert.Equal(t, len(tc.system), s.SystemCount)
			assert.Equal(t, len(tc.bank), s.BankCount)
			assert.Equal(t, s.SystemAmount-s.BankAmount, s.Variance)
		})
	}
}

func TestCalculateSummary_ConvertsCurrencies(t *testing.T) {
	zar := sysTxn("TXN-2", "REF-2", at(10, 0), 1820)
	zar.Currency = domain.CurrencyZAR
	res := MatchResult{UnmatchedSystem: []domain.SystemTransactionRecord{
		sysTxn("TXN-1", "REF-1", at(9, 0), 100),
		zar,
	}}

	s, err := CalculateSummary(testDate, domain.CurrencyUSD, res, testConv)
	require.NoError(t, err)

	want, err := testConv.Convert(1820, domain.CurrencyZAR, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, 100+want, s.SystemAmount)
}

func TestCalculateSummary_Overflow(t *testing.T) {
	res := MatchResult{UnmatchedSystem: []domain.SystemTransactionRecord{
		sysTxn("TXN-1", "REF-1", at(9, 0), math.MaxInt64),
		sysTxn("TXN-2", "REF-2", at(9, 1), 1),
	}}

	_, err := CalculateSummary(testDate, domain.CurrencyUSD, res, testConv)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestRecalculate(t *testing.T) {
	base := domain.DailyReconciliationSummary{
		Date:             testDate,
		Status:           domain.ReconciliationStatusPendingReview,
		Currency:         domain.CurrencyUSD,
		SystemCount:      2,
		SystemAmount:     15000,
		BankCount:        1,
		BankAmount:       10000,
		DiscrepancyCount: 1,
		Variance:         5000,
	}

	t.Run("adjustment closing the gap completes the day", func(t *testing.T) {
		s, err := Recalculate(base, 5000, 0)
		require.NoError(t, err)

		assert.Equal(t, int64(15000), s.BankAmount)
		assert.Equal(t, int64(5000), s.AdjustmentAmount)
		assert.Zero(t, s.Variance)
		assert.Equal(t, domain.ReconciliationStatusCompleted, s.Status)
	})

	t.Run("resolution without adjustment keeps the variance", func(t *testing.T) {
		s, err := Recalculate(base, 0, 0)
		require.NoError(t, err)

		assert.Equal(t, int64(5000), s.Variance)
		assert.Zero(t, s.DiscrepancyCount)
		assert.Equal(t, domain.ReconciliationStatusPendingReview, s.Status)
	})

	t.Run("applying the same total twice is stable", func(t *testing.T) {
		once, err := Recalculate(base, 3000, 1)
		require.NoError(t, err)
		twice, err := Recalculate(once, 3000, 1)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
		assert.Equal(t, int64(2000), twice.Variance)
	})

	t.Run("replacing a previous total", func(t *testing.T) {
		first, err := Recalculate(base, 3000, 1)
		require.NoError(t, err)
		second, err := Recalculate(first, 5000, 0)
		require.NoError(t, err)

		assert.Equal(t, int64(15000), second.BankAmount)
		assert.Equal(t, second.SystemAmount-second.BankAmount, second.Variance)
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := Recalculate(base, math.MaxInt64, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestHashInputs(t *testing.T) {
	system := []domain.SystemTransactionRecord{
		sysTxn("TXN-1", "REF-1", at(9, 0), 5000),
		sysTxn("TXN-2", "REF-2", at(9, 5), 7000),
	}
	bank := []domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 1), 5000)}

	h := HashInputs(system, bank)
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashInputs([]domain.SystemTransactionRecord{system[1], system[0]}, bank))

	changed := []domain.BankRecord{bankTxn("BNK-1", "REF-1", at(9, 1), 5001)}
	assert.NotEqual(t, h, HashInputs(system, changed))
}
