package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

const exceptionColumns = `id, recon_date, kind, system_ref, bank_ref, amount, description,
	status, assigned_to, priority, resolution_action, resolution_notes,
	resolution_approved_by, resolution_adjustment, resolved_at, superseded_at,
	created_at, updated_at`

const priorityOrder = `CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END`

type ExceptionRepository struct {
	db *sql.DB
}

func NewExceptionRepository(db *sql.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

func (r *ExceptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationException, error) {
	e, err := getException(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// ListByDate returns every exception recorded for date, superseded ones
// included.
func (r *ExceptionRepository) ListByDate(ctx context.Context, tx *sql.Tx, date domain.Date) ([]domain.ReconciliationException, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+exceptionColumns+` FROM reconciliation_exceptions WHERE recon_date = $1 ORDER BY id`,
		date.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("ListByDate: %w", err)
	}
	defer rows.Close()

	exceptions, err := scanExceptions(rows)
	if err != nil {
		return nil, fmt.Errorf("ListByDate: %w", err)
	}
	return exceptions, nil
}

// List returns one page of exceptions matching f, ordered by date (newest
// first), then priority, then ID, together with the total number of matches.
func (r *ExceptionRepository) List(ctx context.Context, f domain.ExceptionFilter) ([]domain.ReconciliationException, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DateFrom != nil {
		add("recon_date >= $%d", f.DateFrom.String())
	}
	if f.DateTo != nil {
		add("recon_date <= $%d", f.DateTo.String())
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Kind != nil {
		add("kind = $%d", *f.Kind)
	}
	if f.Priority != nil {
		add("priority = $%d", *f.Priority)
	}
	if f.AssignedTo != nil {
		add("assigned_to = $%d", *f.AssignedTo)
	}
	if !f.IncludeSuperseded {
		conds = append(conds, "superseded_at IS NULL")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reconciliation_exceptions`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	pageArgs := append(args, limit, max(f.Offset, 0))
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+exceptionColumns+` FROM reconciliation_exceptions`+where+
			fmt.Sprintf(` ORDER BY recon_date DESC, %s, id LIMIT $%d OFFSET $%d`, priorityOrder, len(args)+1, len(args)+2),
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	exceptions, err := scanExceptions(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return exceptions, total, nil
}

// CountByCategory counts the live exceptions dated in [from, to] per status,
// kind and priority.
func (r *ExceptionRepository) CountByCategory(ctx context.Context, from, to domain.Date) ([]domain.ExceptionCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, kind, priority, COUNT(*) FROM reconciliation_exceptions
		WHERE recon_date >= $1 AND recon_date <= $2 AND superseded_at IS NULL
		GROUP BY status, kind, priority ORDER BY status, kind, priority`,
		from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("CountByCategory: %w", err)
	}
	defer rows.Close()

	var out []domain.ExceptionCount
	for rows.Next() {
		var c domain.ExceptionCount
		if err := rows.Scan(&c.Status, &c.Kind, &c.Priority, &c.Count); err != nil {
			return nil, fmt.Errorf("CountByCategory: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CountByCategory: rows: %w", err)
	}
	return out, nil
}

// Upsert inserts e or refreshes the discrepancy details of an existing row.
// Lifecycle columns of an existing row are left untouched; they only change
// through Assign and Resolve.
func (r *ExceptionRepository) Upsert(ctx context.Context, tx *sql.Tx, e *domain.ReconciliationException) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO reconciliation_exceptions (
			id, recon_date, kind, system_ref, bank_ref, amount, description,
			status, assigned_to, priority, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			system_ref = EXCLUDED.system_ref,
			bank_ref = EXCLUDED.bank_ref,
			amount = EXCLUDED.amount,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			superseded_at = NULL,
			updated_at = EXCLUDED.updated_at`,
		e.ID, e.Date.String(), e.Kind, e.SystemRef, e.BankRef, e.Amount, e.Description,
		e.Status, e.AssignedTo, e.Priority, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (r *ExceptionRepository) MarkSuperseded(ctx context.Context, tx *sql.Tx, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE reconciliation_exceptions SET superseded_at = $1, updated_at = $1
		WHERE id = ANY($2::uuid[]) AND superseded_at IS NULL`,
		at, pq.Array(keys),
	)
	if err != nil {
		return fmt.Errorf("MarkSuperseded: %w", err)
	}
	return nil
}

// Assign moves a pending or investigating exception to investigating under
// assignee in one compare-and-set statement.
func (r *ExceptionRepository) Assign(ctx context.Context, id uuid.UUID, assignee string, at time.Time) (*domain.ReconciliationException, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE reconciliation_exceptions
		SET status = 'investigating', assigned_to = $2, updated_at = $3
		WHERE id = $1 AND status IN ('pending', 'investigating') AND superseded_at IS NULL
		RETURNING `+exceptionColumns,
		id, assignee, at,
	)
	e, err := scanException(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Assign: %w", classifyMiss(ctx, r.db, id))
	}
	if err != nil {
		return nil, fmt.Errorf("Assign: %w", err)
	}
	return e, nil
}

// Resolve records res on an open exception. Exactly one of any number of
// concurrent callers succeeds; the others get ErrAlreadyResolved.
func (r *ExceptionRepository) Resolve(ctx context.Context, tx *sql.Tx, id uuid.UUID, res domain.Resolution) (*domain.ReconciliationException, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE reconciliation_exceptions
		SET status = 'resolved', resolution_action = $2, resolution_notes = $3,
			resolution_approved_by = $4, resolution_adjustment = $5, resolved_at = $6, updated_at = $6
		WHERE id = $1 AND status IN ('pending', 'investigating') AND superseded_at IS NULL
		RETURNING `+exceptionColumns,
		id, res.Action, res.Notes, res.ApprovedBy, res.AdjustmentAmount, res.ResolvedAt,
	)
	e, err := scanException(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Resolve: %w", classifyMiss(ctx, tx, id))
	}
	if err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}
	return e, nil
}

// CountOpen counts the unresolved, non-superseded exceptions of date.
func (r *ExceptionRepository) CountOpen(ctx context.Context, tx *sql.Tx, date domain.Date) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reconciliation_exceptions
		WHERE recon_date = $1 AND status <> 'resolved' AND superseded_at IS NULL`,
		date.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountOpen: %w", err)
	}
	return n, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getException(ctx context.Context, q rowQuerier, id uuid.UUID) (*domain.ReconciliationException, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+exceptionColumns+` FROM reconciliation_exceptions WHERE id = $1`, id,
	)
	e, err := scanException(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// classifyMiss explains why a compare-and-set on exception id matched no row.
func classifyMiss(ctx context.Context, q rowQuerier, id uuid.UUID) error {
	e, err := getException(ctx, q, id)
	if err != nil {
		return err
	}
	switch {
	case e.Status.IsTerminal():
		return domain.ErrAlreadyResolved
	case e.SupersededAt != nil:
		return fmt.Errorf("exception superseded by a later run: %w", domain.ErrInvalidTransition)
	default:
		return fmt.Errorf("exception in status %s: %w", e.Status, domain.ErrInvalidTransition)
	}
}

func scanExceptions(rows *sql.Rows) ([]domain.ReconciliationException, error) {
	var out []domain.ReconciliationException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanException(s scanner) (*domain.ReconciliationException, error) {
	var e domain.ReconciliationException
	var date time.Time
	var action, notes, approvedBy sql.NullString
	var adjustment sql.NullInt64
	var resolvedAt sql.NullTime

	err := s.Scan(
		&e.ID, &date, &e.Kind, &e.SystemRef, &e.BankRef, &e.Amount, &e.Description,
		&e.Status, &e.AssignedTo, &e.Priority, &action, &notes,
		&approvedBy, &adjustment, &resolvedAt, &e.SupersededAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Date = domain.DateOf(date)
	if action.Valid {
		res := &domain.Resolution{
			Action:     domain.ResolutionAction(action.String),
			Notes:      notes.String,
			ApprovedBy: approvedBy.String,
			ResolvedAt: resolvedAt.Time,
		}
		if adjustment.Valid {
			amt := adjustment.Int64
			res.AdjustmentAmount = &amt
		}
		e.Resolution = res
	}
	return &e, nil
}
