package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

// SystemActor is recorded as ProcessedBy on scheduled runs.
const SystemActor = "system"

type reconciler interface {
	Run(ctx context.Context, date domain.Date, actor string) (*domain.DailyReconciliationSummary, error)
}

// DailyReconciliationJob reconciles the previous calendar day (UTC).
type DailyReconciliationJob struct {
	recon reconciler
	now   func() time.Time
}

func NewDailyReconciliationJob(recon reconciler) *DailyReconciliationJob {
	return &DailyReconciliationJob{recon: recon, now: time.Now}
}

func (j *DailyReconciliationJob) Name() string { return "daily_reconciliation" }

func (j *DailyReconciliationJob) Run(ctx context.Context) error {
	date := domain.DateOf(j.now()).AddDays(-1)

	summary, err := j.recon.Run(ctx, date, SystemActor)
	if errors.Is(err, domain.ErrLockContention) {
		logging.FromContext(ctx).Info("scheduled run skipped, date already running", "recon_date", date.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("DailyReconciliationJob: %s: %w", date, err)
	}

	logging.FromContext(ctx).Info("scheduled reconciliation finished",
		"recon_date", date.String(),
		"status", summary.Status,
		"variance", summary.Variance,
	)
	return nil
}

type idempotencyCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// IdempotencyCleanupJob drops expired idempotency cache entries.
type IdempotencyCleanupJob struct {
	cache idempotencyCleaner
}

func NewIdempotencyCleanupJob(cache idempotencyCleaner) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{cache: cache}
}

func (j *IdempotencyCleanupJob) Name() string { return "idempotency_cleanup" }

func (j *IdempotencyCleanupJob) Run(ctx context.Context) error {
	n, err := j.cache.CleanExpired(ctx)
	if err != nil {
		return fmt.Errorf("IdempotencyCleanupJob: %w", err)
	}
	if n > 0 {
		logging.FromContext(ctx).Info("expired idempotency entries removed", "count", n)
	}
	return nil
}
