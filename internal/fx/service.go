package fx

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

// Rate is the mid-market price of one unit of From in To.
type Rate struct {
	From domain.Currency
	To   domain.Currency
	Mid  decimal.Decimal
}

// RateService holds a static mid-market rate table. Rates are fixed for the
// process lifetime, conversions are pure and always at the mid rate.
type RateService struct {
	rates map[string]decimal.Decimal
}

func NewRateService() *RateService {
	return &RateService{
		rates: map[string]decimal.Decimal{
			"USD_ZWG": decimal.RequireFromString("26.75"),
			"ZWG_USD": decimal.RequireFromString("0.03738"),
			"USD_ZAR": decimal.RequireFromString("18.20"),
			"ZAR_USD": decimal.RequireFromString("0.05495"),
			"ZAR_ZWG": decimal.RequireFromString("1.4698"),
			"ZWG_ZAR": decimal.RequireFromString("0.68037"),
		},
	}
}

func pairKey(from, to domain.Currency) string {
	return string(from) + "_" + string(to)
}

func (s *RateService) GetRate(_ context.Context, from, to domain.Currency) (*Rate, error) {
	r, err := s.rate(from, to)
	if err != nil {
		return nil, fmt.Errorf("GetRate: %w", err)
	}
	return r, nil
}

// ReportingRates returns the rate from every supported currency into
// reporting, the reporting currency itself first at 1.
func (s *RateService) ReportingRates(_ context.Context, reporting domain.Currency) ([]Rate, error) {
	if !reporting.IsValid() {
		return nil, fmt.Errorf("ReportingRates: %s: %w", reporting, domain.ErrInvalidCurrency)
	}

	out := []Rate{{From: reporting, To: reporting, Mid: decimal.NewFromInt(1)}}
	for _, c := range domain.Currencies() {
		if c == reporting {
			continue
		}
		r, err := s.rate(c, reporting)
		if err != nil {
			return nil, fmt.Errorf("ReportingRates: %w", err)
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *RateService) rate(from, to domain.Currency) (*Rate, error) {
	if !from.IsValid() || !to.IsValid() {
		return nil, fmt.Errorf("invalid currency pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}
	if from == to {
		return &Rate{From: from, To: to, Mid: decimal.NewFromInt(1)}, nil
	}

	mid, ok := s.rates[pairKey(from, to)]
	if !ok {
		return nil, fmt.Errorf("unsupported pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}
	return &Rate{From: from, To: to, Mid: mid}, nil
}

// Convert turns an amount in cents of one currency into cents of another at
// the mid rate, rounding half away from zero. Same-currency conversion is
// the identity.
func (s *RateService) Convert(amount int64, from, to domain.Currency) (int64, error) {
	if from == to {
		if !from.IsValid() {
			return 0, fmt.Errorf("Convert: %w", domain.ErrInvalidCurrency)
		}
		return amount, nil
	}

	r, err := s.rate(from, to)
	if err != nil {
		return 0, fmt.Errorf("Convert: %w", err)
	}
	return decimal.NewFromInt(amount).Mul(r.Mid).Round(0).IntPart(), nil
}
