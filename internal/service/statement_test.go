package service_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/fx"
	"github.com/josh-kwaku/evend-recon/internal/repository"
	"github.com/josh-kwaku/evend-recon/internal/service"
	"github.com/josh-kwaku/evend-recon/internal/testutil"
)

var january = domain.Period{Year: 2024, Month: time.January}

// deliveryServer acknowledges statements until failing is set.
type deliveryServer struct {
	*httptest.Server
	received atomic.Int32
	failing  atomic.Bool
}

func newDeliveryServer(t *testing.T) *deliveryServer {
	t.Helper()
	d := &deliveryServer{}
	d.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		d.received.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(d.Close)
	return d
}

func setupStatements(t *testing.T) (*service.StatementService, *deliveryServer, *sql.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	delivery := newDeliveryServer(t)

	svc := service.NewStatementService(
		repository.NewVendorRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewStatementRepository(db),
		service.NewDeliveryClient(delivery.URL, time.Second),
		fx.NewRateService(),
		db,
		2,
	)
	return svc, delivery, db
}

func TestGenerate_CommissionAndNet(t *testing.T) {
	svc, _, db := setupStatements(t)
	ctx := context.Background()

	testutil.SeedVendor(t, db, "V-001", "Harare Airtime Hub", "0.025")
	testutil.SeedVendor(t, db, "V-002", "Bulawayo Power", "0.03")
	testutil.SeedVendor(t, db, "V-003", "Mutare Data", "0.01")
	testutil.SetVendorStatus(t, db, "V-003", domain.VendorStatusSuspended)

	testutil.SeedTransaction(t, db, "TXN-1", "REF-1", "V-001", "600.00", domain.TransactionStatusSuccess, at(9, 0))
	testutil.SeedTransaction(t, db, "TXN-2", "REF-2", "V-001", "400.00", domain.TransactionStatusSuccess, at(10, 0).AddDate(0, 0, 10))
	testutil.SeedTransaction(t, db, "TXN-3", "REF-3", "V-001", "999.00", domain.TransactionStatusFailed, at(11, 0))
	testutil.SeedTransaction(t, db, "TXN-4", "REF-4", "V-001", "50.00", domain.TransactionStatusSuccess, at(9, 0).AddDate(0, 1, 0))

	out, err := svc.Generate(ctx, january)
	require.NoError(t, err)
	require.Len(t, out, 2, "suspended vendors are skipped")

	v1 := out[0]
	assert.Equal(t, "V-001", v1.VendorID)
	assert.Equal(t, 2, v1.TotalTransactions)
	assert.Equal(t, int64(100000), v1.TotalAmount)
	assert.Equal(t, int64(2500), v1.Commission)
	assert.Equal(t, int64(97500), v1.NetAmount)
	assert.Equal(t, domain.StatementStatusDraft, v1.Status)

	v2 := out[1]
	assert.Equal(t, "V-002", v2.VendorID)
	assert.Zero(t, v2.TotalTransactions)
	assert.Zero(t, v2.TotalAmount)
	assert.Zero(t, v2.NetAmount)
}

func TestStatementLifecycle(t *testing.T) {
	svc, delivery, db := setupStatements(t)
	ctx := context.Background()

	testutil.SeedVendor(t, db, "V-001", "Harare Airtime Hub", "0.025")
	testutil.SeedTransaction(t, db, "TXN-1", "REF-1", "V-001", "1000.00", domain.TransactionStatusSuccess, at(9, 0))

	_, err := svc.Generate(ctx, january)
	require.NoError(t, err)

	_, err = svc.Send(ctx, "V-001", january)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "draft cannot be sent")

	generated, err := svc.Finalize(ctx, "V-001", january)
	require.NoError(t, err)
	assert.Equal(t, domain.StatementStatusGenerated, generated.Status)
	assert.NotNil(t, generated.GeneratedAt)

	_, err = svc.Finalize(ctx, "V-001", january)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	// A rate change after finalize must not touch the snapshot.
	vendors := service.NewVendorService(repository.NewVendorRepository(db), db)
	_, err = vendors.UpdateCommissionRate(ctx, "V-001", service.CommissionChangeRequest{
		Rate:      decimal.RequireFromString("0.05"),
		ChangedBy: "finance.manager",
		Reason:    "renegotiated",
	})
	require.NoError(t, err)
	regenerated, err := svc.Generate(ctx, january)
	require.NoError(t, err)
	require.Len(t, regenerated, 1)
	assert.Equal(t, domain.StatementStatusGenerated, regenerated[0].Status)
	assert.Equal(t, int64(2500), regenerated[0].Commission)

	delivery.failing.Store(true)
	_, err = svc.Send(ctx, "V-001", january)
	require.ErrorIs(t, err, domain.ErrDeliveryFailed)
	st, err := svc.Get(ctx, "V-001", january)
	require.NoError(t, err)
	assert.Equal(t, domain.StatementStatusGenerated, st.Status)

	delivery.failing.Store(false)
	sent, err := svc.Send(ctx, "V-001", january)
	require.NoError(t, err)
	assert.Equal(t, domain.StatementStatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)
	assert.Equal(t, int32(1), delivery.received.Load())

	_, err = svc.Send(ctx, "V-001", january)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSend_ConcurrentDeliversOnce(t *testing.T) {
	svc, delivery, db := setupStatements(t)
	ctx := context.Background()

	testutil.SeedVendor(t, db, "V-001", "Harare Airtime Hub", "0.025")
	testutil.SeedTransaction(t, db, "TXN-1", "REF-1", "V-001", "1000.00", domain.TransactionStatusSuccess, at(9, 0))
	_, err := svc.Generate(ctx, january)
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, "V-001", january)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Send(ctx, "V-001", january)
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrInvalidTransition):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int32(1), delivery.received.Load())

	st, err := svc.Get(ctx, "V-001", january)
	require.NoError(t, err)
	assert.Equal(t, domain.StatementStatusSent, st.Status)
}

func TestSend_MissingStatement(t *testing.T) {
	svc, delivery, _ := setupStatements(t)

	_, err := svc.Send(context.Background(), "V-404", january)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, delivery.received.Load())
}

func TestDraftRegenerationPicksUpChanges(t *testing.T) {
	svc, _, db := setupStatements(t)
	ctx := context.Background()

	testutil.SeedVendor(t, db, "V-001", "Harare Airtime Hub", "0.02")
	testutil.SeedTransaction(t, db, "TXN-1", "REF-1", "V-001", "100.00", domain.TransactionStatusSuccess, at(9, 0))

	_, err := svc.Generate(ctx, january)
	require.NoError(t, err)

	vendors := service.NewVendorService(repository.NewVendorRepository(db), db)
	_, err = vendors.UpdateCommissionRate(ctx, "V-001", service.CommissionChangeRequest{
		Rate: decimal.RequireFromString("0.025"), ChangedBy: "finance.manager",
	})
	require.NoError(t, err)

	testutil.SeedTransaction(t, db, "TXN-2", "REF-2", "V-001", "100.00", domain.TransactionStatusSuccess, at(10, 0))
	out, err := svc.Generate(ctx, january)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(20000), out[0].TotalAmount)
	assert.Equal(t, int64(500), out[0].Commission)

	listed, err := svc.List(ctx, january, "")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestStatementService_Validation(t *testing.T) {
	svc, _, _ := setupStatements(t)
	ctx := context.Background()

	_, err := svc.Generate(ctx, domain.Period{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Generate(ctx, domain.PeriodOf(domain.DateOf(time.Now()).AddDays(62)))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Finalize(ctx, "", january)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Get(ctx, "V-404", january)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Finalize(ctx, "V-404", january)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
