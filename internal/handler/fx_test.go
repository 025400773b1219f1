package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/fx"
)

func newFXMux() *http.ServeMux {
	h := NewFXHandler(fx.NewRateService(), domain.CurrencyUSD)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fx/rates", h.GetRates)
	return mux
}

func TestFXHandler_AllRatesIntoReportingCurrency(t *testing.T) {
	rec, resp := do(t, newFXMux(), http.MethodGet, "/fx/rates", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataMap(t, resp)
	assert.Equal(t, "USD", data["reporting_currency"])
	rates := data["rates"].([]any)
	require.Len(t, rates, 3)

	byFrom := map[string]string{}
	for _, r := range rates {
		m := r.(map[string]any)
		byFrom[m["from"].(string)] = m["rate"].(string)
	}
	assert.Equal(t, map[string]string{"USD": "1", "ZWG": "0.03738", "ZAR": "0.05495"}, byFrom)
	assert.NotContains(t, data, "spread_pct")
	assert.NotContains(t, data, "effective_rate")
}

func TestFXHandler_SingleCurrency(t *testing.T) {
	rec, resp := do(t, newFXMux(), http.MethodGet, "/fx/rates?from=ZAR", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rates := dataMap(t, resp)["rates"].([]any)
	require.Len(t, rates, 1)
	assert.Equal(t, "0.05495", rates[0].(map[string]any)["rate"])

	rec, resp = do(t, newFXMux(), http.MethodGet, "/fx/rates?from=EUR", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}
