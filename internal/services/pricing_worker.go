package services

import (
	"context"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/utils"
	"storefront/internal/wizard"

	"go.uber.org/zap"
)

// PricingWorker recalculates whenever the store reports that priced inputs
// changed and every pricing precondition holds. Bursts of edits collapse into
// a single pending trigger.
type PricingWorker struct {
	store *wizard.Store
	calc  *PricingCalculator
	log   *zap.Logger

	trigger     chan struct{}
	unsubscribe func()
	wg          sync.WaitGroup
}

func NewPricingWorker(store *wizard.Store, calc *PricingCalculator, logger *zap.Logger) *PricingWorker {
	w := &PricingWorker{
		store:   store,
		calc:    calc,
		log:     utils.OrNop(logger),
		trigger: make(chan struct{}, 1),
	}
	w.unsubscribe = store.Subscribe(w.onEvent)
	return w
}

func (w *PricingWorker) onEvent(ev wizard.Event) {
	if ev.Kind != wizard.EventPricedInputsChanged {
		return
	}
	if len(wizard.PricingPreconditions(ev.Draft)) > 0 {
		return
	}
	w.kick()
}

func (w *PricingWorker) kick() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run serves triggers until ctx ends, then waits for calls in flight.
// A rehydrated draft that is ready but unpriced is priced once at start.
func (w *PricingWorker) Run(ctx context.Context) error {
	defer w.unsubscribe()

	if d := w.store.Snapshot(); d.Pricing == nil && len(wizard.PricingPreconditions(d)) == 0 {
		w.kick()
	}

	for {
		select {
		case <-ctx.Done():
			w.calc.Cancel()
			w.wg.Wait()
			return nil
		case <-w.trigger:
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.calculate(ctx)
			}()
		}
	}
}

func (w *PricingWorker) calculate(ctx context.Context) {
	_, err := w.calc.Calculate(ctx, w.store)
	switch {
	case err == nil:
	case domain.IsStale(err):
		w.log.Debug("stale pricing result dropped")
	case domain.IsMissingFields(err):
		w.log.Debug("pricing skipped, inputs incomplete", zap.Error(err))
	default:
		w.log.Info("background pricing failed", zap.Error(err))
	}
}
