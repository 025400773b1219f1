package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/evend-recon/internal/config"
	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
	"github.com/josh-kwaku/evend-recon/internal/reconcile"
	"github.com/josh-kwaku/evend-recon/internal/repository"
)

// maxSummaryRange bounds ListSummaries to roughly a year of days.
const maxSummaryRange = 366

type ReconciliationService struct {
	ledger      ledgerSource
	bank        bankSource
	summaries   summaryRepository
	exceptions  exceptionRepository
	adjustments adjustmentRepository
	fx          reconcile.Converter
	db          *sql.DB
	matcher     *reconcile.Matcher
	priorities  reconcile.PriorityThresholds
	currency    domain.Currency
	runTimeout  time.Duration
	locks       *dateLocks
	now         func() time.Time
}

func NewReconciliationService(
	ledger ledgerSource,
	bank bankSource,
	summaries summaryRepository,
	exceptions exceptionRepository,
	adjustments adjustmentRepository,
	fxConv reconcile.Converter,
	db *sql.DB,
	cfg *config.Config,
) *ReconciliationService {
	return &ReconciliationService{
		ledger:      ledger,
		bank:        bank,
		summaries:   summaries,
		exceptions:  exceptions,
		adjustments: adjustments,
		fx:          fxConv,
		db:          db,
		matcher: reconcile.NewMatcher(reconcile.MatchConfig{
			AmountToleranceCents: cfg.AmountToleranceCents,
			DateToleranceDays:    cfg.DateToleranceDays,
		}),
		priorities: reconcile.PriorityThresholds{
			High:   cfg.PriorityHighCents,
			Medium: cfg.PriorityMediumCents,
		},
		currency:   domain.Currency(cfg.ReconCurrency),
		runTimeout: cfg.RunTimeout,
		locks:      newDateLocks(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run reconciles one calendar date and persists the summary and exceptions
// atomically. A second Run on the same date while one is active fails with
// ErrLockContention. When the fetched inputs are identical to those of the
// stored summary the stored summary is returned and nothing is written.
func (s *ReconciliationService) Run(ctx context.Context, date domain.Date, actor string) (*domain.DailyReconciliationSummary, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("Run: date required: %w", domain.ErrInvalidRequest)
	}
	if actor == "" {
		return nil, fmt.Errorf("Run: actor required: %w", domain.ErrInvalidRequest)
	}

	key := date.String()
	if !s.locks.tryLock(key) {
		return nil, fmt.Errorf("Run: %s: %w", key, domain.ErrLockContention)
	}
	defer s.locks.unlock(key)

	ctx, log := logging.WithRun(ctx, key)
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	start := time.Now()
	log.Info("reconciliation run started", "actor", actor)

	system, bank, err := s.fetch(ctx, date)
	if err != nil {
		log.Warn("reconciliation sources unavailable", "error", err)
		return nil, fmt.Errorf("Run: %w", err)
	}

	result := s.matcher.Match(system, bank)
	hash := reconcile.HashInputs(system, bank)

	summary, written, err := s.persist(ctx, date, actor, result, hash)
	if err != nil {
		log.Error("reconciliation run failed", "error", err)
		return nil, fmt.Errorf("Run: %w", err)
	}

	log.Info("reconciliation run completed",
		"status", summary.Status,
		"system_count", summary.SystemCount,
		"bank_count", summary.BankCount,
		"variance", summary.Variance,
		"discrepancies", summary.DiscrepancyCount,
		"written", written,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return summary, nil
}

func (s *ReconciliationService) fetch(ctx context.Context, date domain.Date) ([]domain.SystemTransactionRecord, []domain.BankRecord, error) {
	var (
		system []domain.SystemTransactionRecord
		bank   []domain.BankRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.ledger.GetSystemTransactions(gctx, date)
		if err != nil {
			return fmt.Errorf("ledger: %w: %w", domain.ErrSourceUnavailable, err)
		}
		system = recs
		return nil
	})
	g.Go(func() error {
		recs, err := s.bank.FetchBankRecords(gctx, date)
		if err != nil {
			return fmt.Errorf("bank feed: %w: %w", domain.ErrSourceUnavailable, err)
		}
		bank = recs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return system, bank, nil
}

func (s *ReconciliationService) persist(ctx context.Context, date domain.Date, actor string, result reconcile.MatchResult, hash string) (*domain.DailyReconciliationSummary, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("persist: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := repository.TryLockDate(ctx, tx, date); err != nil {
		return nil, false, fmt.Errorf("persist: %w", err)
	}

	prior, err := s.summaries.GetForUpdate(ctx, tx, date)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("persist: %w", err)
	}
	if prior != nil && prior.InputHash == hash {
		return prior, false, nil
	}

	now := s.now()

	existing, err := s.exceptions.ListByDate(ctx, tx, date)
	if err != nil {
		return nil, false, fmt.Errorf("persist: %w", err)
	}
	fresh := reconcile.BuildExceptions(date, result, s.priorities, now)
	merged, superseded := reconcile.MergeExceptions(fresh, existing)

	for i := range merged {
		if err := s.exceptions.Upsert(ctx, tx, &merged[i]); err != nil {
			return nil, false, fmt.Errorf("persist: %w", err)
		}
	}
	if err := s.exceptions.MarkSuperseded(ctx, tx, superseded, now); err != nil {
		return nil, false, fmt.Errorf("persist: %w", err)
	}

	adjustments, err := s.adjustments.SumByDate(ctx, tx, date)
	if err != nil {
		return nil, false, fmt.Errorf("persist: %w", err)
	}

	summary, err := reconcile.CalculateSummary(date, s.currency, result, s.fx)
	if err != nil {
		return nil, false, fmt.Errorf("persist: %w", err)
	}
	summary, err = reconcile.Recalculate(summary, adjustments, reconcile.OpenCount(merged))
	if err != nil {
		return nil, false, fmt.Errorf("persist: %w", err)
	}
	summary.InputHash = hash
	summary.ProcessedBy = &actor
	summary.ProcessedAt = &now
	summary.UpdatedAt = now

	if err := s.summaries.Upsert(ctx, tx, &summary); err != nil {
		return nil, false, fmt.Errorf("persist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("persist: commit: %w", err)
	}

	if len(superseded) > 0 {
		logging.FromContext(ctx).Info("exceptions superseded by re-run", "count", len(superseded))
	}

	return &summary, true, nil
}

// InProgress reports whether a run for date is active in this process.
func (s *ReconciliationService) InProgress(date domain.Date) bool {
	return s.locks.isHeld(date.String())
}

// GetSummary returns the stored summary for date. While a run is active the
// status reads in_progress, even before the first summary exists.
func (s *ReconciliationService) GetSummary(ctx context.Context, date domain.Date) (*domain.DailyReconciliationSummary, error) {
	summary, err := s.summaries.GetByDate(ctx, date)
	running := s.InProgress(date)

	switch {
	case err == nil:
		if running {
			summary.Status = domain.ReconciliationStatusInProgress
		}
		return summary, nil
	case errors.Is(err, domain.ErrNotFound) && running:
		return &domain.DailyReconciliationSummary{
			Date:     date,
			Status:   domain.ReconciliationStatusInProgress,
			Currency: s.currency,
		}, nil
	default:
		return nil, fmt.Errorf("GetSummary: %w", err)
	}
}

func validateRange(from, to domain.Date) error {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return fmt.Errorf("bad range %s..%s: %w", from, to, domain.ErrInvalidRequest)
	}
	if domain.DaysBetween(from, to) > maxSummaryRange {
		return fmt.Errorf("range above %d days: %w", maxSummaryRange, domain.ErrInvalidRequest)
	}
	return nil
}

func (s *ReconciliationService) ListSummaries(ctx context.Context, from, to domain.Date) ([]domain.DailyReconciliationSummary, error) {
	if err := validateRange(from, to); err != nil {
		return nil, fmt.Errorf("ListSummaries: %w", err)
	}

	out, err := s.summaries.List(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("ListSummaries: %w", err)
	}
	for i := range out {
		if s.InProgress(out[i].Date) {
			out[i].Status = domain.ReconciliationStatusInProgress
		}
	}
	return out, nil
}

// Report sums the stored summaries of [from, to] and counts their live
// exceptions by status, kind and priority.
func (s *ReconciliationService) Report(ctx context.Context, from, to domain.Date) (*domain.ReconciliationReport, error) {
	if err := validateRange(from, to); err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}

	totals, err := s.summaries.Totals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	counts, err := s.exceptions.CountByCategory(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}

	rep := &domain.ReconciliationReport{
		From:                 from,
		To:                   to,
		Currency:             s.currency,
		DaysByStatus:         map[domain.ReconciliationStatus]int{},
		ExceptionsByStatus:   map[domain.ExceptionStatus]int{},
		ExceptionsByKind:     map[domain.ExceptionKind]int{},
		ExceptionsByPriority: map[domain.Priority]int{},
	}
	for _, t := range totals {
		rep.Days += t.Days
		rep.DaysByStatus[t.Status] += t.Days
		rep.SystemAmount += t.SystemAmount
		rep.BankAmount += t.BankAmount
		rep.AdjustmentAmount += t.AdjustmentAmount
		rep.Variance += t.Variance
	}
	for _, c := range counts {
		rep.Exceptions += c.Count
		rep.ExceptionsByStatus[c.Status] += c.Count
		rep.ExceptionsByKind[c.Kind] += c.Count
		rep.ExceptionsByPriority[c.Priority] += c.Count
	}
	return rep, nil
}

// Adjustments lists the manual adjustments booked against date.
func (s *ReconciliationService) Adjustments(ctx context.Context, date domain.Date) ([]domain.Adjustment, error) {
	out, err := s.adjustments.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("Adjustments: %w", err)
	}
	return out, nil
}
