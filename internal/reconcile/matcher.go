// Package reconcile holds the pure reconciliation computations: matching
// ledger records against bank records, deriving the daily summary, turning
// discrepancies into exceptions and computing vendor statements. Nothing in
// this package performs I/O.
package reconcile

import (
	"sort"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

// MaxDateToleranceDays caps DateToleranceDays. The fallback pass scans
// 2N+1 calendar buckets per bank line.
const MaxDateToleranceDays = 7

type MatchConfig struct {
	// AmountToleranceCents is the largest absolute amount difference accepted
	// by the fallback pass. Zero means equal to the cent.
	AmountToleranceCents int64
	// DateToleranceDays is the largest calendar-day distance accepted by the
	// fallback pass. Zero means the same calendar date.
	DateToleranceDays int
}

type MatchResult struct {
	Matched         []domain.MatchedPair
	UnmatchedSystem []domain.SystemTransactionRecord
	UnmatchedBank   []domain.BankRecord
	// DuplicateOf maps the Key of every bank record rejected as a duplicate
	// to the system reference it repeated. Those records are also present in
	// UnmatchedBank.
	DuplicateOf map[string]string
}

func (r MatchResult) Mismatched() []domain.MatchedPair {
	var out []domain.MatchedPair
	for _, p := range r.Matched {
		if p.Mismatched() {
			out = append(out, p)
		}
	}
	return out
}

func (r MatchResult) IsDuplicate(b domain.BankRecord) bool {
	_, ok := r.DuplicateOf[b.Key()]
	return ok
}

type Matcher struct {
	cfg MatchConfig
}

func NewMatcher(cfg MatchConfig) *Matcher {
	if cfg.AmountToleranceCents < 0 {
		cfg.AmountToleranceCents = 0
	}
	if cfg.DateToleranceDays < 0 {
		cfg.DateToleranceDays = 0
	}
	if cfg.DateToleranceDays > MaxDateToleranceDays {
		cfg.DateToleranceDays = MaxDateToleranceDays
	}
	return &Matcher{cfg: cfg}
}

type bucketKey struct {
	currency domain.Currency
	date     domain.Date
}

// Match pairs system records with bank records. Input order does not affect
// the result: both sides are sorted by timestamp before matching, so "first"
// always means earliest. Bank lines that repeat a BankRef are numbered in
// that order (see domain.BankRecord.Key).
func (m *Matcher) Match(system []domain.SystemTransactionRecord, bank []domain.BankRecord) MatchResult {
	sys := sortedSystem(system)
	bnk := sortedBank(bank)

	sysMatched := make([]bool, len(sys))
	// bankDone is set once a bank record is paired or rejected as a duplicate.
	bankDone := make([]bool, len(bnk))
	bankPaired := make([]bool, len(bnk))
	result := MatchResult{DuplicateOf: make(map[string]string)}

	byRef := make(map[string][]int, len(sys))
	buckets := make(map[bucketKey][]int, len(sys))
	for i, s := range sys {
		if s.Reference != "" {
			byRef[s.Reference] = append(byRef[s.Reference], i)
		}
		k := bucketKey{currency: s.Currency, date: domain.DateOf(s.Timestamp)}
		buckets[k] = append(buckets[k], i)
	}

	// Pass 1: exact reference.
	for bi, b := range bnk {
		if b.Reference == "" {
			continue
		}
		candidates := byRef[b.Reference]
		seen := false
		for _, si := range candidates {
			if sys[si].Currency != b.Currency {
				continue
			}
			seen = true
			if sysMatched[si] {
				continue
			}
			sysMatched[si] = true
			bankDone[bi] = true
			bankPaired[bi] = true
			result.Matched = append(result.Matched, domain.MatchedPair{System: sys[si], Bank: b})
			break
		}
		if !bankDone[bi] && seen {
			bankDone[bi] = true
			result.DuplicateOf[b.Key()] = b.Reference
		}
	}

	// Pass 2: amount and date. A line with no free candidate that repeats a
	// record already paired on the same terms is a duplicate.
	for bi, b := range bnk {
		if bankDone[bi] {
			continue
		}
		if si, ok := m.fallbackCandidate(b, sys, sysMatched, buckets, false); ok {
			sysMatched[si] = true
			bankDone[bi] = true
			bankPaired[bi] = true
			result.Matched = append(result.Matched, domain.MatchedPair{System: sys[si], Bank: b})
			continue
		}
		if b.Reference != "" {
			continue
		}
		if si, ok := m.fallbackCandidate(b, sys, sysMatched, buckets, true); ok {
			bankDone[bi] = true
			result.DuplicateOf[b.Key()] = *systemRef(sys[si])
		}
	}

	for i, s := range sys {
		if !sysMatched[i] {
			result.UnmatchedSystem = append(result.UnmatchedSystem, s)
		}
	}
	for i, b := range bnk {
		if !bankPaired[i] {
			result.UnmatchedBank = append(result.UnmatchedBank, b)
		}
	}

	sort.SliceStable(result.Matched, func(i, j int) bool {
		return systemLess(result.Matched[i].System, result.Matched[j].System)
	})

	return result
}

// fallbackCandidate picks the system record within tolerance of b that is
// closest in amount, then earliest by timestamp, then lowest ID. paired
// selects whether it searches already matched records or free ones.
func (m *Matcher) fallbackCandidate(b domain.BankRecord, sys []domain.SystemTransactionRecord, matched []bool, buckets map[bucketKey][]int, paired bool) (int, bool) {
	day := domain.DateOf(b.Timestamp)
	best := -1
	var bestDelta int64

	for offset := -m.cfg.DateToleranceDays; offset <= m.cfg.DateToleranceDays; offset++ {
		for _, si := range buckets[bucketKey{currency: b.Currency, date: day.AddDays(offset)}] {
			if matched[si] != paired {
				continue
			}
			delta := abs(sys[si].Amount - b.Amount)
			if delta > m.cfg.AmountToleranceCents {
				continue
			}
			if best == -1 || delta < bestDelta || (delta == bestDelta && systemLess(sys[si], sys[best])) {
				best = si
				bestDelta = delta
			}
		}
	}

	return best, best != -1
}

func sortedSystem(in []domain.SystemTransactionRecord) []domain.SystemTransactionRecord {
	out := make([]domain.SystemTransactionRecord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return systemLess(out[i], out[j]) })
	return out
}

func sortedBank(in []domain.BankRecord) []domain.BankRecord {
	out := make([]domain.BankRecord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return bankLess(out[i], out[j]) })

	seq := make(map[string]int, len(out))
	for i := range out {
		seq[out[i].BankRef]++
		out[i].Seq = seq[out[i].BankRef]
	}
	return out
}

func systemLess(a, b domain.SystemTransactionRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}

func bankLess(a, b domain.BankRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.BankRef != b.BankRef {
		return a.BankRef < b.BankRef
	}
	if a.Amount != b.Amount {
		return a.Amount < b.Amount
	}
	return a.Reference < b.Reference
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
