package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

// CartClient submits completed bookings to the cart service.
type CartClient struct {
	URL  string
	HTTP *http.Client
}

func NewCartClient(url string, timeout time.Duration) CartClient {
	return CartClient{URL: url, HTTP: &http.Client{Timeout: timeout}}
}

func (c CartClient) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// Submit posts req. A reply with success=false, or a non-2xx status, is a
// domain.SubmissionFailedError carrying the service message unchanged.
func (c CartClient) Submit(ctx context.Context, req models.BookingRequest) (models.BookingResult, error) {
	status, body, err := postJSON(ctx, c.client(), c.URL, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.BookingResult{}, err
		}
		return models.BookingResult{}, domain.SubmissionFailedError{Msg: "cart service unavailable", Err: err}
	}

	var res models.BookingResult
	decodeErr := json.Unmarshal(body, &res)
	if status < 200 || status > 299 {
		msg := res.Message
		if msg == "" {
			var eb errorBody
			_ = json.Unmarshal(body, &eb)
			msg = eb.text()
		}
		if msg == "" {
			msg = fmt.Sprintf("cart service returned %d", status)
		}
		return models.BookingResult{}, domain.SubmissionFailedError{Msg: msg}
	}
	if decodeErr != nil {
		return models.BookingResult{}, domain.SubmissionFailedError{Msg: "malformed cart response", Err: decodeErr}
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "booking was rejected"
		}
		return res, domain.SubmissionFailedError{Msg: msg}
	}
	return res, nil
}
