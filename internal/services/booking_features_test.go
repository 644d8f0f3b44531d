package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pricing"
	"storefront/internal/repositories"
	"storefront/internal/wizard"

	"github.com/cucumber/godog"
)

type bookingFeature struct {
	storage *repositories.MemoryDraftRepository
	store   *wizard.Store
	api     *fakePricing
	cart    *fakeCart
	calc    *PricingCalculator
	result  SubmitResult
	err     error
}

func (f *bookingFeature) reset() {
	f.storage = repositories.NewMemoryDraftRepository()
	f.store = nil
	f.api = &fakePricing{}
	f.cart = &fakeCart{}
	f.calc = &PricingCalculator{Client: f.api, Rules: pricing.DefaultRules(), Tolerance: 0.5}
	f.result = SubmitResult{}
	f.err = nil
}

func (f *bookingFeature) anEmptyTransferDraftOnRoute(routeID string) error {
	store, err := wizard.Open(wizard.Options{
		Product:   models.ProductTransfer,
		SessionID: "feature",
		Storage:   f.storage,
		Routes:    repositories.NewMemoryRouteCatalog(testRoute()),
		Policy:    wizard.Policy{SameDayBuffer: 2 * time.Hour, Location: time.UTC},
		Now:       func() time.Time { return fixedNow },
	})
	if err != nil {
		return err
	}
	f.store = store
	return store.SelectRouteByID(routeID)
}

func (f *bookingFeature) theShopperPicksVehicle(vehicle string) error {
	return f.store.SetVehicleType(vehicle)
}

func (f *bookingFeature) theShopperDepartsOnAt(date, clock string) error {
	return f.store.SetDateTime(date, clock, false)
}

func (f *bookingFeature) theDraftIsPriced() error {
	_, err := f.calc.Calculate(context.Background(), f.store)
	return err
}

func (f *bookingFeature) aPricedDraftForAt(date, clock string) error {
	if err := f.theShopperPicksVehicle("sedan"); err != nil {
		return err
	}
	if err := f.theShopperDepartsOnAt(date, clock); err != nil {
		return err
	}
	return f.theDraftIsPriced()
}

func (f *bookingFeature) theShopperSetsPassengers(n int) error {
	return f.store.SetPassengers(n, 0)
}

func (f *bookingFeature) theContactNameIs(name string) error {
	return f.store.SetContact(models.ContactPatch{ContactName: &name})
}

func (f *bookingFeature) theContactPhoneIs(phone string) error {
	return f.store.SetContact(models.ContactPatch{ContactPhone: &phone})
}

func (f *bookingFeature) theCartServiceAcceptsBookings() error {
	f.cart.res = models.BookingResult{Success: true, Message: "added to cart"}
	return nil
}

func (f *bookingFeature) theShopperSubmitsTheBooking() error {
	f.result, f.err = SubmissionService{Cart: f.cart}.Submit(context.Background(), f.store)
	return nil
}

func (f *bookingFeature) theFinalPriceIs(want float64) error {
	d := f.store.Snapshot()
	if d.Pricing == nil {
		return errors.New("draft has no price")
	}
	if math.Abs(d.Pricing.FinalPrice-want) > 0.001 {
		return fmt.Errorf("expected final price %.2f, got %.2f", want, d.Pricing.FinalPrice)
	}
	return nil
}

func (f *bookingFeature) thePricingRequestAskedForSurcharge(category string) error {
	if f.api.Calls() == 0 {
		return errors.New("pricing service was never called")
	}
	if got := f.api.Last().SurchargeCategory; got != category {
		return fmt.Errorf("expected surcharge %q, got %q", category, got)
	}
	return nil
}

func (f *bookingFeature) thePricingServiceWasCalledTimes(n int) error {
	if got := f.api.Calls(); got != n {
		return fmt.Errorf("expected %d pricing calls, got %d", n, got)
	}
	return nil
}

func (f *bookingFeature) theDraftHasNoPrice() error {
	if p := f.store.Snapshot().Pricing; p != nil {
		return fmt.Errorf("expected no price, got %.2f", p.FinalPrice)
	}
	return nil
}

func (f *bookingFeature) theSubmissionIsRejectedAsIncompleteWith(field string) error {
	var ib domain.IncompleteBookingError
	if !errors.As(f.err, &ib) {
		return fmt.Errorf("expected incomplete booking, got %v", f.err)
	}
	for _, m := range ib.Missing {
		if m == field {
			return nil
		}
	}
	return fmt.Errorf("expected %q among missing fields %s", field, strings.Join(ib.Missing, ", "))
}

func (f *bookingFeature) theCartServiceWasCalledTimes(n int) error {
	f.cart.mu.Lock()
	defer f.cart.mu.Unlock()
	if len(f.cart.calls) != n {
		return fmt.Errorf("expected %d cart calls, got %d", n, len(f.cart.calls))
	}
	return nil
}

func (f *bookingFeature) theSubmissionSucceeds() error {
	if f.err != nil {
		return fmt.Errorf("expected success, got %v", f.err)
	}
	if !f.result.Success {
		return errors.New("submission result is not successful")
	}
	return nil
}

func (f *bookingFeature) theDraftIsEmpty() error {
	d := f.store.Snapshot()
	if d.Route != nil || d.Configuration.VehicleType != "" || d.Contact.ContactName != "" {
		return fmt.Errorf("expected an empty draft, got %+v", d)
	}
	if d.CurrentStep != models.StepRoute {
		return fmt.Errorf("expected step route, got %s", d.CurrentStep)
	}
	return nil
}

func (f *bookingFeature) noStoredDraftIsLeft() error {
	if keys := f.storage.Keys(""); len(keys) > 0 {
		return fmt.Errorf("expected no stored drafts, got %v", keys)
	}
	return nil
}

func initializeBookingScenario(ctx *godog.ScenarioContext) {
	f := &bookingFeature{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty transfer draft on route "([^"]*)"$`, f.anEmptyTransferDraftOnRoute)
	ctx.Step(`^a priced draft for "([^"]*)" at "([^"]*)"$`, f.aPricedDraftForAt)
	ctx.Step(`^the contact name is "([^"]*)"$`, f.theContactNameIs)
	ctx.Step(`^the contact phone is "([^"]*)"$`, f.theContactPhoneIs)
	ctx.Step(`^the cart service accepts bookings$`, f.theCartServiceAcceptsBookings)

	ctx.Step(`^the shopper picks vehicle "([^"]*)"$`, f.theShopperPicksVehicle)
	ctx.Step(`^the shopper departs on "([^"]*)" at "([^"]*)"$`, f.theShopperDepartsOnAt)
	ctx.Step(`^the draft is priced$`, f.theDraftIsPriced)
	ctx.Step(`^the shopper sets (\d+) passengers$`, f.theShopperSetsPassengers)
	ctx.Step(`^the shopper submits the booking$`, f.theShopperSubmitsTheBooking)

	ctx.Step(`^the final price is (\d+(?:\.\d+)?)$`, f.theFinalPriceIs)
	ctx.Step(`^the pricing request asked for surcharge "([^"]*)"$`, f.thePricingRequestAskedForSurcharge)
	ctx.Step(`^the pricing service was called (\d+) times?$`, f.thePricingServiceWasCalledTimes)
	ctx.Step(`^the draft has no price$`, f.theDraftHasNoPrice)
	ctx.Step(`^the submission is rejected as incomplete with "([^"]*)"$`, f.theSubmissionIsRejectedAsIncompleteWith)
	ctx.Step(`^the cart service was called (\d+) times?$`, f.theCartServiceWasCalledTimes)
	ctx.Step(`^the submission succeeds$`, f.theSubmissionSucceeds)
	ctx.Step(`^the draft is empty$`, f.theDraftIsEmpty)
	ctx.Step(`^no stored draft is left$`, f.noStoredDraftIsLeft)
}

func TestBookingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeBookingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/booking.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
