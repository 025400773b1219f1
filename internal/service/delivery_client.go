package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

// DeliveryClient hands finalized statements to the vendor notification
// service.
type DeliveryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDeliveryClient(baseURL string, timeout time.Duration) *DeliveryClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DeliveryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type deliveryPayload struct {
	VendorID          string `json:"vendor_id"`
	VendorName        string `json:"vendor_name"`
	Period            string `json:"period"`
	Currency          string `json:"currency"`
	TotalTransactions int    `json:"total_transactions"`
	TotalAmount       string `json:"total_amount"`
	CommissionRate    string `json:"commission_rate"`
	Commission        string `json:"commission"`
	NetAmount         string `json:"net_amount"`
}

func (c *DeliveryClient) Deliver(ctx context.Context, st domain.VendorStatement) error {
	log := logging.FromContext(ctx)

	payload := deliveryPayload{
		VendorID:          st.VendorID,
		VendorName:        st.VendorName,
		Period:            st.Period.String(),
		Currency:          string(st.Currency),
		TotalTransactions: st.TotalTransactions,
		TotalAmount:       domain.FormatAmount(st.TotalAmount),
		CommissionRate:    st.CommissionRate.String(),
		Commission:        domain.FormatAmount(st.Commission),
		NetAmount:         domain.FormatAmount(st.NetAmount),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("Deliver: marshal: %w", err)
	}

	url := c.baseURL + "/statements"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("Deliver: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	log.Info("statement delivery sent", "vendor_id", st.VendorID, "period", payload.Period)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("Deliver: send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("statement delivery response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Deliver: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
