// Package ingest fetches bank statement lines for a reconciliation date and
// normalises them into domain.BankRecord values.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

type BankFeed interface {
	FetchBankRecords(ctx context.Context, date domain.Date) ([]domain.BankRecord, error)
}

const (
	ModeHTTP = "http"
	ModeCSV  = "csv"
	ModeOFX  = "ofx"
)

type FeedConfig struct {
	Mode    string
	BaseURL string
	Dir     string
	Timeout time.Duration
}

func NewBankFeed(cfg FeedConfig) (BankFeed, error) {
	switch strings.ToLower(cfg.Mode) {
	case ModeHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("NewBankFeed: http mode needs a base URL: %w", domain.ErrInvalidRequest)
		}
		return NewBankFeedClient(cfg.BaseURL, cfg.Timeout), nil
	case ModeCSV:
		return NewCSVBankFeed(cfg.Dir), nil
	case ModeOFX:
		return NewOFXBankFeed(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("NewBankFeed: unknown mode %q: %w", cfg.Mode, domain.ErrInvalidRequest)
	}
}

// rawBankRecord is a statement line before validation. Every feed format is
// reduced to this shape first.
type rawBankRecord struct {
	BankRef   string
	Reference string
	Timestamp string
	Amount    string
	Currency  string
}

func normalize(raw rawBankRecord) (domain.BankRecord, error) {
	bankRef := strings.TrimSpace(raw.BankRef)
	if bankRef == "" {
		return domain.BankRecord{}, fmt.Errorf("normalize: missing bank_ref: %w", domain.ErrInvalidRequest)
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return domain.BankRecord{}, fmt.Errorf("normalize: %s: %w", bankRef, err)
	}

	amount, err := domain.ParseAmount(raw.Amount)
	if err != nil {
		return domain.BankRecord{}, fmt.Errorf("normalize: %s: %w", bankRef, err)
	}

	currency := domain.Currency(strings.ToUpper(strings.TrimSpace(raw.Currency)))
	if !currency.IsValid() {
		return domain.BankRecord{}, fmt.Errorf("normalize: %s: currency %q: %w", bankRef, raw.Currency, domain.ErrInvalidCurrency)
	}

	return domain.BankRecord{
		BankRef:   bankRef,
		Reference: strings.TrimSpace(raw.Reference),
		Timestamp: ts,
		Amount:    amount,
		Currency:  currency,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q: %w", s, domain.ErrInvalidRequest)
}
