// Package clients talks to the remote pricing and cart services over JSON/HTTP.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

const maxBody = 1 << 20

// PricingClient posts PricingRequests to the authoritative pricing endpoint.
type PricingClient struct {
	URL  string
	HTTP *http.Client
}

func NewPricingClient(url string, timeout time.Duration) PricingClient {
	return PricingClient{URL: url, HTTP: &http.Client{Timeout: timeout}}
}

func (c PricingClient) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	if s := strings.TrimSpace(b.Error); s != "" {
		return s
	}
	return strings.TrimSpace(b.Message)
}

// Calculate returns the remote breakdown. Transport failures, non-2xx answers
// and unreadable bodies come back as domain.PricingServiceError.
func (c PricingClient) Calculate(ctx context.Context, req models.PricingRequest) (models.PricingBreakdown, error) {
	status, body, err := postJSON(ctx, c.client(), c.URL, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.PricingBreakdown{}, err
		}
		return models.PricingBreakdown{}, domain.PricingServiceError{Err: err}
	}
	if status < 200 || status > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		msg := eb.text()
		if msg == "" {
			msg = fmt.Sprintf("pricing service returned %d", status)
		}
		return models.PricingBreakdown{}, domain.PricingServiceError{Status: status, Msg: msg}
	}

	var out models.PricingBreakdown
	if err := json.Unmarshal(body, &out); err != nil {
		return models.PricingBreakdown{}, domain.PricingServiceError{Status: status, Msg: "malformed pricing response", Err: err}
	}
	return out, nil
}

func postJSON(ctx context.Context, hc *http.Client, url string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
