package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

type Converter interface {
	Convert(amount int64, from, to domain.Currency) (int64, error)
}

// CalculateSummary derives the daily summary from one match result. Amounts
// are converted into currency before summing. DiscrepancyCount is
// |unmatched system| + |unmatched bank| + |mismatched pairs|.
func CalculateSummary(date domain.Date, currency domain.Currency, result MatchResult, conv Converter) (domain.DailyReconciliationSummary, error) {
	s := domain.DailyReconciliationSummary{
		Date:     date,
		Currency: currency,
	}

	for _, p := range result.Matched {
		if err := addSystem(&s, p.System, currency, conv); err != nil {
			return domain.DailyReconciliationSummary{}, fmt.Errorf("CalculateSummary: %w", err)
		}
		if err := addBank(&s, p.Bank, currency, conv); err != nil {
			return domain.DailyReconciliationSummary{}, fmt.Errorf("CalculateSummary: %w", err)
		}
	}
	for _, r := range result.UnmatchedSystem {
		if err := addSystem(&s, r, currency, conv); err != nil {
			return domain.DailyReconciliationSummary{}, fmt.Errorf("CalculateSummary: %w", err)
		}
	}
	for _, r := range result.UnmatchedBank {
		if err := addBank(&s, r, currency, conv); err != nil {
			return domain.DailyReconciliationSummary{}, fmt.Errorf("CalculateSummary: %w", err)
		}
	}

	s.DiscrepancyCount = len(result.UnmatchedSystem) + len(result.UnmatchedBank) + len(result.Mismatched())

	variance, err := checkedSub(s.SystemAmount, s.BankAmount)
	if err != nil {
		return domain.DailyReconciliationSummary{}, fmt.Errorf("CalculateSummary: variance: %w", err)
	}
	s.Variance = variance
	s.Status = statusFor(s.DiscrepancyCount, s.Variance)

	return s, nil
}

// Recalculate re-derives the adjusted figures of a summary after exception
// resolutions. adjustmentTotal is the signed sum of every adjustment recorded
// for the date and replaces any previously applied total; openDiscrepancies
// is the number of unresolved exceptions. Calling it twice with the same
// arguments yields the same summary.
func Recalculate(s domain.DailyReconciliationSummary, adjustmentTotal int64, openDiscrepancies int) (domain.DailyReconciliationSummary, error) {
	rawBank, err := checkedSub(s.BankAmount, s.AdjustmentAmount)
	if err != nil {
		return s, fmt.Errorf("Recalculate: %w", err)
	}
	bank, err := checkedAdd(rawBank, adjustmentTotal)
	if err != nil {
		return s, fmt.Errorf("Recalculate: %w", err)
	}
	variance, err := checkedSub(s.SystemAmount, bank)
	if err != nil {
		return s, fmt.Errorf("Recalculate: %w", err)
	}

	s.BankAmount = bank
	s.AdjustmentAmount = adjustmentTotal
	s.Variance = variance
	s.DiscrepancyCount = openDiscrepancies
	s.Status = statusFor(openDiscrepancies, variance)
	return s, nil
}

func statusFor(discrepancies int, variance int64) domain.ReconciliationStatus {
	if discrepancies == 0 && variance == 0 {
		return domain.ReconciliationStatusCompleted
	}
	return domain.ReconciliationStatusPendingReview
}

func addSystem(s *domain.DailyReconciliationSummary, r domain.SystemTransactionRecord, currency domain.Currency, conv Converter) error {
	amt, err := conv.Convert(r.Amount, r.Currency, currency)
	if err != nil {
		return fmt.Errorf("system record %s: %w", r.ID, err)
	}
	total, err := checkedAdd(s.SystemAmount, amt)
	if err != nil {
		return fmt.Errorf("system record %s: %w", r.ID, err)
	}
	s.SystemAmount = total
	s.SystemCount++
	return nil
}

func addBank(s *domain.DailyReconciliationSummary, r domain.BankRecord, currency domain.Currency, conv Converter) error {
	amt, err := conv.Convert(r.Amount, r.Currency, currency)
	if err != nil {
		return fmt.Errorf("bank record %s: %w", r.BankRef, err)
	}
	total, err := checkedAdd(s.BankAmount, amt)
	if err != nil {
		return fmt.Errorf("bank record %s: %w", r.BankRef, err)
	}
	s.BankAmount = total
	s.BankCount++
	return nil
}

func checkedAdd(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, domain.ErrInvalidAmount
	}
	return a + b, nil
}

func checkedSub(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, domain.ErrInvalidAmount
	}
	return a - b, nil
}

// HashInputs fingerprints a day's inputs independent of their order. Two runs
// with the same hash reconcile identical data.
func HashInputs(system []domain.SystemTransactionRecord, bank []domain.BankRecord) string {
	lines := make([]string, 0, len(system)+len(bank))
	for _, r := range system {
		lines = append(lines, "S|"+r.ID+"|"+r.Reference+"|"+r.VendorID+"|"+
			strconv.FormatInt(r.Timestamp.UnixNano(), 10)+"|"+
			strconv.FormatInt(r.Amount, 10)+"|"+string(r.Currency))
	}
	for _, r := range bank {
		lines = append(lines, "B|"+r.BankRef+"|"+r.Reference+"|"+
			strconv.FormatInt(r.Timestamp.UnixNano(), 10)+"|"+
			strconv.FormatInt(r.Amount, 10)+"|"+string(r.Currency))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
