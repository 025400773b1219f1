package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
	"github.com/josh-kwaku/evend-recon/internal/reconcile"
	"github.com/josh-kwaku/evend-recon/internal/repository"
)

const maxExceptionPageSize = 200

type ResolveRequest struct {
	Action           domain.ResolutionAction
	Notes            string
	ApprovedBy       string
	AdjustmentAmount *int64
}

type ExceptionService struct {
	exceptions  exceptionRepository
	adjustments adjustmentRepository
	summaries   summaryRepository
	db          *sql.DB
	now         func() time.Time
}

func NewExceptionService(exceptions exceptionRepository, adjustments adjustmentRepository, summaries summaryRepository, db *sql.DB) *ExceptionService {
	return &ExceptionService{
		exceptions:  exceptions,
		adjustments: adjustments,
		summaries:   summaries,
		db:          db,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *ExceptionService) List(ctx context.Context, f domain.ExceptionFilter) ([]domain.ReconciliationException, int, error) {
	if err := validateFilter(f); err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	if f.Limit <= 0 || f.Limit > maxExceptionPageSize {
		f.Limit = maxExceptionPageSize
	}

	out, total, err := s.exceptions.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return out, total, nil
}

func (s *ExceptionService) Get(ctx context.Context, id uuid.UUID) (*domain.ReconciliationException, error) {
	e, err := s.exceptions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return e, nil
}

// Assign puts an open exception under investigation by assignee. Assigning
// an exception already under investigation hands it over.
func (s *ExceptionService) Assign(ctx context.Context, id uuid.UUID, assignee string) (*domain.ReconciliationException, error) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, fmt.Errorf("Assign: assignee required: %w", domain.ErrInvalidRequest)
	}

	e, err := s.exceptions.Assign(ctx, id, assignee, s.now())
	if err != nil {
		return nil, fmt.Errorf("Assign: %w", err)
	}

	logging.FromContext(ctx).Info("exception assigned", "exception_id", id, "assigned_to", assignee)
	return e, nil
}

// Resolve closes an open exception. The status change, any adjustment it
// carries and the recalculated summary of its date commit together; of two
// concurrent calls on the same exception exactly one succeeds and the other
// gets ErrAlreadyResolved.
func (s *ExceptionService) Resolve(ctx context.Context, id uuid.UUID, req ResolveRequest) (*domain.ReconciliationException, error) {
	log := logging.FromContext(ctx)

	if err := validateResolve(req); err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}

	current, err := s.exceptions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("Resolve: %w", domain.ErrAlreadyResolved)
	}

	now := s.now()
	res := domain.Resolution{
		Action:           req.Action,
		Notes:            strings.TrimSpace(req.Notes),
		ApprovedBy:       strings.TrimSpace(req.ApprovedBy),
		AdjustmentAmount: req.AdjustmentAmount,
		ResolvedAt:       now,
	}

	resolved, summary, err := s.executeResolve(ctx, current.Date, id, res)
	if err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}

	attrs := []any{
		"exception_id", id,
		"recon_date", current.Date.String(),
		"action", res.Action,
		"approved_by", res.ApprovedBy,
	}
	if summary != nil {
		attrs = append(attrs, "summary_status", summary.Status, "variance", summary.Variance)
	}
	log.Info("exception resolved", attrs...)

	return resolved, nil
}

func (s *ExceptionService) executeResolve(ctx context.Context, date domain.Date, id uuid.UUID, res domain.Resolution) (*domain.ReconciliationException, *domain.DailyReconciliationSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("executeResolve: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Waits for any run of the same date to commit first.
	if err := repository.LockDate(ctx, tx, date); err != nil {
		return nil, nil, fmt.Errorf("executeResolve: %w", err)
	}

	resolved, err := s.exceptions.Resolve(ctx, tx, id, res)
	if err != nil {
		return nil, nil, fmt.Errorf("executeResolve: %w", err)
	}

	if res.AdjustmentAmount != nil {
		adj := &domain.Adjustment{
			ID:          uuid.New(),
			ExceptionID: id,
			Date:        date,
			Amount:      *res.AdjustmentAmount,
			ApprovedBy:  res.ApprovedBy,
			CreatedAt:   res.ResolvedAt,
		}
		if err := s.adjustments.Create(ctx, tx, adj); err != nil {
			return nil, nil, fmt.Errorf("executeResolve: %w", err)
		}
	}

	summary, err := s.recalculate(ctx, tx, date, res.ResolvedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("executeResolve: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("executeResolve: commit: %w", err)
	}
	return resolved, summary, nil
}

// recalculate re-derives the stored summary of date from the adjustments and
// open exceptions visible in tx. A date without a summary is left alone.
func (s *ExceptionService) recalculate(ctx context.Context, tx *sql.Tx, date domain.Date, now time.Time) (*domain.DailyReconciliationSummary, error) {
	current, err := s.summaries.GetForUpdate(ctx, tx, date)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}

	total, err := s.adjustments.SumByDate(ctx, tx, date)
	if err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}
	open, err := s.exceptions.CountOpen(ctx, tx, date)
	if err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}

	updated, err := reconcile.Recalculate(*current, total, open)
	if err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}
	updated.UpdatedAt = now

	if err := s.summaries.Upsert(ctx, tx, &updated); err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}
	return &updated, nil
}

func validateResolve(req ResolveRequest) error {
	if !req.Action.IsValid() {
		return fmt.Errorf("unknown resolution action %q: %w", req.Action, domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Notes) == "" {
		return fmt.Errorf("notes required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.ApprovedBy) == "" {
		return fmt.Errorf("approved_by required: %w", domain.ErrInvalidRequest)
	}

	if req.Action == domain.ResolutionActionManualAdjustment {
		if req.AdjustmentAmount == nil || *req.AdjustmentAmount == 0 {
			return fmt.Errorf("manual adjustment needs a non-zero amount: %w", domain.ErrInvalidRequest)
		}
		return nil
	}
	if req.AdjustmentAmount != nil {
		return fmt.Errorf("adjustment amount only allowed for %s: %w", domain.ResolutionActionManualAdjustment, domain.ErrInvalidRequest)
	}
	return nil
}

func validateFilter(f domain.ExceptionFilter) error {
	switch {
	case f.Status != nil && !f.Status.IsValid():
		return fmt.Errorf("unknown status %q: %w", *f.Status, domain.ErrInvalidRequest)
	case f.Kind != nil && !f.Kind.IsValid():
		return fmt.Errorf("unknown kind %q: %w", *f.Kind, domain.ErrInvalidRequest)
	case f.Priority != nil && !f.Priority.IsValid():
		return fmt.Errorf("unknown priority %q: %w", *f.Priority, domain.ErrInvalidRequest)
	case f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom):
		return fmt.Errorf("date_to before date_from: %w", domain.ErrInvalidRequest)
	case f.Offset < 0:
		return fmt.Errorf("negative offset: %w", domain.ErrInvalidRequest)
	}
	return nil
}
