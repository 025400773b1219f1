package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// reconLockSpace is the first key of every date advisory lock, keeping them
// apart from any other advisory locks taken on the same database.
const reconLockSpace int32 = 0x7265_636e

// TryLockDate takes the transaction-scoped advisory lock for date without
// waiting. It fails with ErrLockContention when another transaction holds it.
func TryLockDate(ctx context.Context, tx *sql.Tx, date domain.Date) error {
	var ok bool
	err := tx.QueryRowContext(ctx,
		`SELECT pg_try_advisory_xact_lock($1, $2)`, reconLockSpace, dateLockKey(date),
	).Scan(&ok)
	if err != nil {
		return fmt.Errorf("TryLockDate: %w", err)
	}
	if !ok {
		return fmt.Errorf("TryLockDate: %s: %w", date, domain.ErrLockContention)
	}
	return nil
}

// LockDate waits for the advisory lock for date. It is released when tx ends.
func LockDate(ctx context.Context, tx *sql.Tx, date domain.Date) error {
	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1, $2)`, reconLockSpace, dateLockKey(date),
	)
	if err != nil {
		return fmt.Errorf("LockDate: %w", err)
	}
	return nil
}

func dateLockKey(date domain.Date) int32 {
	return int32(date.Time().Unix() / 86400)
}
