package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

type fakeReconciler struct {
	dates  []domain.Date
	actors []string
	err    error
}

func (f *fakeReconciler) Run(_ context.Context, date domain.Date, actor string) (*domain.DailyReconciliationSummary, error) {
	f.dates = append(f.dates, date)
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DailyReconciliationSummary{Date: date, Status: domain.ReconciliationStatusCompleted}, nil
}

func TestDailyReconciliationJob_RunsPreviousDay(t *testing.T) {
	recon := &fakeReconciler{}
	job := NewDailyReconciliationJob(recon)
	job.now = func() time.Time { return time.Date(2024, time.March, 1, 1, 30, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, recon.dates, 1)
	assert.Equal(t, "2024-02-29", recon.dates[0].String())
	assert.Equal(t, SystemActor, recon.actors[0])
}

func TestDailyReconciliationJob_ContentionIsNotAFailure(t *testing.T) {
	recon := &fakeReconciler{err: domain.ErrLockContention}
	job := NewDailyReconciliationJob(recon)

	assert.NoError(t, job.Run(context.Background()))
}

func TestDailyReconciliationJob_SourceFailure(t *testing.T) {
	recon := &fakeReconciler{err: domain.ErrSourceUnavailable}
	job := NewDailyReconciliationJob(recon)

	assert.ErrorIs(t, job.Run(context.Background()), domain.ErrSourceUnavailable)
}

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) CleanExpired(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

func TestScheduler_RunNowAndRegistration(t *testing.T) {
	s := New(context.Background(), slog.Default())
	cleaner := &fakeCleaner{}
	job := NewIdempotencyCleanupJob(cleaner)

	require.NoError(t, s.AddJob("@every 1h", job))
	assert.Error(t, s.AddJob("not a schedule", job))

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, cleaner.calls)

	cleaner.err = errors.New("db gone")
	assert.Error(t, s.RunNow(job))
}

type signalJob struct{ ran chan struct{} }

func (j *signalJob) Name() string { return "signal" }

func (j *signalJob) Run(context.Context) error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return nil
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(context.Background(), slog.Default())
	job := &signalJob{ran: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob("* * * * * *", job))

	s.Start()
	select {
	case <-job.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
	s.Stop()
}
