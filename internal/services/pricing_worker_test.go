package services

import (
	"context"
	"testing"
	"time"

	"storefront/internal/pricing"
	"storefront/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingWorkerRecalculatesOnPricedInputChange(t *testing.T) {
	store := openStore(t, nil)
	api := &fakePricing{}
	calc := &PricingCalculator{Client: api, Rules: pricing.DefaultRules()}
	worker := NewPricingWorker(store, calc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, store.SelectRoute(testRoute()))
	require.NoError(t, store.SetVehicleType("sedan"))
	assert.Equal(t, 0, api.Calls(), "incomplete inputs must not trigger pricing")

	require.NoError(t, store.SetDateTime("2026-03-02", "08:00", false))
	require.Eventually(t, func() bool {
		d := store.Snapshot()
		return d.Pricing != nil && d.Pricing.FinalPrice == 115
	}, time.Second, 5*time.Millisecond)

	calls := api.Calls()
	contact := "Ann"
	require.NoError(t, store.SetContact(contactPatch(&contact, nil)))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, api.Calls(), "contact edits are not priced")
	assert.NotNil(t, store.Snapshot().Pricing)

	require.NoError(t, store.SetPassengers(2, 0))
	require.Eventually(t, func() bool {
		return api.Calls() > calls && store.Snapshot().Pricing != nil
	}, time.Second, 5*time.Millisecond)
}

func TestPricingWorkerPricesRehydratedDraft(t *testing.T) {
	storage := repositories.NewMemoryDraftRepository()
	seed := readyStore(t, storage)
	require.Nil(t, seed.Snapshot().Pricing)

	store := openStore(t, storage)
	api := &fakePricing{}
	worker := NewPricingWorker(store, &PricingCalculator{Client: api, Rules: pricing.DefaultRules()}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	require.Eventually(t, func() bool {
		return store.Snapshot().Pricing != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, api.Calls())
}
