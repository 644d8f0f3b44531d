package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingClientCalculate(t *testing.T) {
	var got models.PricingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"base_price":100,"time_surcharge":15,"round_trip_discount":0,"options_total":0,"final_price":115,"currency":"EUR"}`))
	}))
	defer srv.Close()

	c := NewPricingClient(srv.URL, time.Second)
	out, err := c.Calculate(context.Background(), models.PricingRequest{
		RouteID:         "airport-city",
		VehicleType:     "sedan",
		TripType:        models.TripOneWay,
		BookingTime:     "2026-03-02 08:00:00",
		SelectedOptions: []models.PricingOption{},
	})
	require.NoError(t, err)
	assert.Equal(t, 115.0, out.FinalPrice)
	assert.Equal(t, "EUR", out.Currency)
	assert.Equal(t, "2026-03-02 08:00:00", got.BookingTime)
	assert.Empty(t, got.ReturnTime)
}

func TestPricingClientErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"pricing temporarily unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewPricingClient(srv.URL, time.Second).Calculate(context.Background(), models.PricingRequest{})
	require.Error(t, err)
	var pe domain.PricingServiceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusServiceUnavailable, pe.Status)
	assert.Equal(t, "pricing temporarily unavailable", pe.Error())
}

func TestPricingClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewPricingClient(srv.URL, time.Second).Calculate(context.Background(), models.PricingRequest{})
	assert.True(t, domain.IsPricingService(err), "got %v", err)
}

func TestPricingClientCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPricingClient(srv.URL, time.Second).Calculate(ctx, models.PricingRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCartClientSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.ContactName == "Reject Me" {
			_, _ = w.Write([]byte(`{"success":false,"message":"Vehicle no longer available"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, time.Second)
	res, err := c.Submit(context.Background(), models.BookingRequest{ContactName: "Ann"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = c.Submit(context.Background(), models.BookingRequest{ContactName: "Reject Me"})
	require.Error(t, err)
	assert.True(t, domain.IsSubmissionFailed(err))
	assert.Equal(t, "Vehicle no longer available", err.Error())
}

func TestCartClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"contact_phone is invalid"}`))
	}))
	defer srv.Close()

	_, err := NewCartClient(srv.URL, time.Second).Submit(context.Background(), models.BookingRequest{})
	require.Error(t, err)
	assert.Equal(t, "contact_phone is invalid", err.Error())
}
