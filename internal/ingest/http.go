package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

// BankFeedClient reads daily statements from the bank's statement API.
type BankFeedClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBankFeedClient(baseURL string, timeout time.Duration) *BankFeedClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BankFeedClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type statementResponse struct {
	Date    string          `json:"date"`
	Records []statementLine `json:"records"`
}

// Amounts travel as strings so no precision is lost to float64.
type statementLine struct {
	BankRef   string `json:"bank_ref"`
	Reference string `json:"reference"`
	Timestamp string `json:"timestamp"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

func (c *BankFeedClient) FetchBankRecords(ctx context.Context, date domain.Date) ([]domain.BankRecord, error) {
	log := logging.FromContext(ctx)

	url := c.baseURL + "/statements/" + date.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchBankRecords: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FetchBankRecords: send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("bank feed response received",
		"status", resp.StatusCode,
		"recon_date", date.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("FetchBankRecords: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload statementResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("FetchBankRecords: decode: %w", err)
	}
	if payload.Date != "" && payload.Date != date.String() {
		return nil, fmt.Errorf("FetchBankRecords: statement for %s returned for %s: %w",
			payload.Date, date, domain.ErrInvalidRequest)
	}

	records := make([]domain.BankRecord, 0, len(payload.Records))
	for _, line := range payload.Records {
		r, err := normalize(rawBankRecord(line))
		if err != nil {
			return nil, fmt.Errorf("FetchBankRecords: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}
