package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/service"
)

type fakeVendors struct {
	gotID  string
	gotReq service.CommissionChangeRequest
	err    error
}

func sampleVendor(id string, rate decimal.Decimal) *domain.Vendor {
	return &domain.Vendor{
		ID:             id,
		BusinessName:   "Harare Airtime Hub",
		Type:           domain.VendorTypeVendor,
		Status:         domain.VendorStatusActive,
		CommissionRate: rate,
		Currency:       domain.CurrencyUSD,
	}
}

func (f *fakeVendors) Get(_ context.Context, id string) (*domain.Vendor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return sampleVendor(id, decimal.RequireFromString("0.025")), nil
}

func (f *fakeVendors) UpdateCommissionRate(_ context.Context, id string, req service.CommissionChangeRequest) (*domain.Vendor, error) {
	f.gotID, f.gotReq = id, req
	if f.err != nil {
		return nil, f.err
	}
	return sampleVendor(id, req.Rate), nil
}

func (f *fakeVendors) CommissionHistory(_ context.Context, id string) ([]domain.CommissionRateChange, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.CommissionRateChange{{
		ID:        uuid.New(),
		VendorID:  id,
		OldRate:   decimal.RequireFromString("0.025"),
		NewRate:   decimal.RequireFromString("0.03"),
		ChangedBy: "ops",
		ChangedAt: time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC),
	}}, nil
}

func newVendorMux(v *fakeVendors) *http.ServeMux {
	h := NewVendorHandler(v)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vendors/{id}", h.Get)
	mux.HandleFunc("PATCH /vendors/{id}/commission", h.UpdateCommission)
	mux.HandleFunc("GET /vendors/{id}/commission/history", h.CommissionHistory)
	return mux
}

func TestVendorHandler_UpdateCommission(t *testing.T) {
	v := &fakeVendors{}
	rec, resp := do(t, newVendorMux(v), http.MethodPatch, "/vendors/V-001/commission",
		`{"commission_rate":"0.03","reason":"renegotiated"}`, "ops")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "V-001", v.gotID)
	assert.Equal(t, "ops", v.gotReq.ChangedBy)
	assert.Equal(t, "renegotiated", v.gotReq.Reason)
	assert.True(t, v.gotReq.Rate.Equal(decimal.RequireFromString("0.03")))
	assert.Equal(t, "0.03", dataMap(t, resp)["commission_rate"])
}

func TestVendorHandler_UpdateCommissionErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		operator string
		err      error
		status   int
		code     string
	}{
		{"no operator", `{"commission_rate":"0.03"}`, "", nil, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"bad json", `{`, "ops", nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"not a number", `{"commission_rate":"three percent"}`, "ops", nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"inactive", `{"commission_rate":"0.03"}`, "ops", domain.ErrVendorInactive, http.StatusConflict, "VENDOR_INACTIVE"},
		{"out of range", `{"commission_rate":"2"}`, "ops", domain.ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown", `{"commission_rate":"0.03"}`, "ops", domain.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, newVendorMux(&fakeVendors{err: tt.err}), http.MethodPatch, "/vendors/V-001/commission", tt.body, tt.operator)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestVendorHandler_GetAndHistory(t *testing.T) {
	mux := newVendorMux(&fakeVendors{})

	rec, resp := do(t, mux, http.MethodGet, "/vendors/V-001", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.025", dataMap(t, resp)["commission_rate"])

	rec, resp = do(t, mux, http.MethodGet, "/vendors/V-001/commission/history", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, resp)
	assert.Equal(t, float64(1), data["total"])
	item := data["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "0.025", item["old_rate"])
	assert.Equal(t, "0.03", item["new_rate"])

	rec, _ = do(t, newVendorMux(&fakeVendors{err: domain.ErrNotFound}), http.MethodGet, "/vendors/V-404/commission/history", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
