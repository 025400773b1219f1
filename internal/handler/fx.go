package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/fx"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

type fxService interface {
	GetRate(ctx context.Context, from, to domain.Currency) (*fx.Rate, error)
	ReportingRates(ctx context.Context, reporting domain.Currency) ([]fx.Rate, error)
}

type FXHandler struct {
	fx        fxService
	reporting domain.Currency
}

// NewFXHandler serves the rates amounts are converted at into reporting,
// the currency summaries are kept in.
func NewFXHandler(fxSvc fxService, reporting domain.Currency) *FXHandler {
	return &FXHandler{fx: fxSvc, reporting: reporting}
}

type fxRateDTO struct {
	From string `json:"from"`
	Rate string `json:"rate"`
}

type fxRatesResponse struct {
	ReportingCurrency string      `json:"reporting_currency"`
	Rates             []fxRateDTO `json:"rates"`
	Timestamp         string      `json:"timestamp"`
}

// GetRates lists the mid rate of every supported currency into the
// reporting currency, or of a single one when ?from= is given.
func (h *FXHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var (
		rates []fx.Rate
		err   error
	)
	if from := r.URL.Query().Get("from"); from != "" {
		if !domain.Currency(from).IsValid() {
			RespondValidationError(w, []FieldError{{Field: "from", Message: "must be USD, ZWG, or ZAR"}})
			return
		}
		var rate *fx.Rate
		rate, err = h.fx.GetRate(r.Context(), domain.Currency(from), h.reporting)
		if rate != nil {
			rates = []fx.Rate{*rate}
		}
	} else {
		rates, err = h.fx.ReportingRates(r.Context(), h.reporting)
	}
	if err != nil {
		log.Warn("fx rate lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	items := make([]fxRateDTO, 0, len(rates))
	for _, rate := range rates {
		items = append(items, fxRateDTO{From: string(rate.From), Rate: rate.Mid.String()})
	}
	RespondSuccess(w, http.StatusOK, fxRatesResponse{
		ReportingCurrency: string(h.reporting),
		Rates:             items,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	})
}
