package wizard

import (
	"testing"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

func transferRoute(id string) models.RouteSelection {
	return models.RouteSelection{
		ID:                   id,
		Product:              models.ProductTransfer,
		Name:                 "Route " + id,
		BasePrice:            100,
		Currency:             "EUR",
		Vehicles:             []models.VehicleOption{{ID: "sedan"}, {ID: "van"}},
		TimeSurchargeEnabled: true,
	}
}

func strPtr(s string) *string { return &s }

func TestSelectRouteClearsDependentFields(t *testing.T) {
	d := models.NewDraft(models.ProductTransfer)
	d, err := SelectRoute(d, transferRoute("a"))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	d, _ = SetVehicleType(d, "van")
	d, _ = SetOptions(d, []models.SelectedOption{{OptionID: "child-seat", Quantity: 1, UnitPrice: 5}})
	d.Pricing = &models.PricingBreakdown{FinalPrice: 100}
	rev := d.PricingState.Revision

	d, err = SelectRoute(d, transferRoute("b"))
	if err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if d.RouteID() != "b" {
		t.Fatalf("expected route b, got %q", d.RouteID())
	}
	if d.Configuration.VehicleType != "" {
		t.Fatalf("vehicle should be cleared, got %q", d.Configuration.VehicleType)
	}
	if len(d.SelectedOptions) != 0 || d.SelectedOptions == nil {
		t.Fatalf("options should be an empty list, got %#v", d.SelectedOptions)
	}
	if d.Pricing != nil {
		t.Fatalf("pricing should be invalidated")
	}
	if d.PricingState.Revision <= rev {
		t.Fatalf("revision should move past %d, got %d", rev, d.PricingState.Revision)
	}
}

func TestSelectRouteRejectsOtherProduct(t *testing.T) {
	d := models.NewDraft(models.ProductTour)
	_, err := SelectRoute(d, transferRoute("a"))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := SelectRoute(d, models.RouteSelection{ID: "  "}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
}

func TestPricedInputsInvalidatePricing(t *testing.T) {
	base := models.NewDraft(models.ProductTransfer)
	base, _ = SelectRoute(base, transferRoute("a"))
	base.Pricing = &models.PricingBreakdown{FinalPrice: 115}

	cases := []struct {
		name string
		fn   func(models.BookingDraft) (models.BookingDraft, error)
	}{
		{"vehicle", func(d models.BookingDraft) (models.BookingDraft, error) { return SetVehicleType(d, "sedan") }},
		{"trip", func(d models.BookingDraft) (models.BookingDraft, error) { return SetTripType(d, models.TripRoundTrip) }},
		{"datetime", func(d models.BookingDraft) (models.BookingDraft, error) {
			return SetDateTime(d, "2026-03-02", "8:05", false)
		}},
		{"passengers", func(d models.BookingDraft) (models.BookingDraft, error) { return SetPassengers(d, 3, 2) }},
		{"options", func(d models.BookingDraft) (models.BookingDraft, error) {
			return SetOptions(d, []models.SelectedOption{{OptionID: "wifi", Quantity: 1}})
		}},
	}
	for _, tc := range cases {
		out, err := tc.fn(base)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if out.Pricing != nil {
			t.Fatalf("%s: pricing should be cleared", tc.name)
		}
		if out.PricingState.Revision != base.PricingState.Revision+1 {
			t.Fatalf("%s: revision expected %d, got %d", tc.name, base.PricingState.Revision+1, out.PricingState.Revision)
		}
		if base.Pricing == nil {
			t.Fatalf("%s: reducer mutated its input", tc.name)
		}
	}
}

func TestContactDoesNotTouchPricing(t *testing.T) {
	d := models.NewDraft(models.ProductTransfer)
	d.Pricing = &models.PricingBreakdown{FinalPrice: 115}
	d.PricingState.Revision = 7

	out := SetContact(d, models.ContactPatch{ContactName: strPtr("  Ana   Silva "), ContactPhone: strPtr("+351 912 000 000")})
	if out.Pricing == nil || out.Pricing.FinalPrice != 115 {
		t.Fatalf("pricing should survive a contact change")
	}
	if out.PricingState.Revision != 7 {
		t.Fatalf("revision should not move, got %d", out.PricingState.Revision)
	}
	if out.Contact.ContactName != "Ana Silva" || out.Contact.ContactPhone != "+351912000000" {
		t.Fatalf("unexpected contact %+v", out.Contact)
	}

	out = SetContact(out, models.ContactPatch{PickupAddress: strPtr("Terminal 1")})
	if out.Contact.ContactName != "Ana Silva" || out.Contact.PickupAddress != "Terminal 1" {
		t.Fatalf("absent patch fields must be kept, got %+v", out.Contact)
	}
}

func TestSetVehicleTypeChecksRouteList(t *testing.T) {
	d := models.NewDraft(models.ProductTransfer)
	d, _ = SelectRoute(d, transferRoute("a"))
	if _, err := SetVehicleType(d, "helicopter"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := SetVehicleType(d, " "); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for blank vehicle, got %v", err)
	}
}

func TestTripTypeRules(t *testing.T) {
	tour := models.NewDraft(models.ProductTour)
	if _, err := SetTripType(tour, models.TripRoundTrip); !domain.IsValidation(err) {
		t.Fatalf("round trip must be transfer only, got %v", err)
	}
	if _, err := SetTripType(tour, "circular"); !domain.IsValidation(err) {
		t.Fatalf("unknown trip type must fail, got %v", err)
	}

	d := models.NewDraft(models.ProductTransfer)
	if _, err := SetDateTime(d, "2026-03-05", "18:00", true); !domain.IsValidation(err) {
		t.Fatalf("return leg needs a round trip, got %v", err)
	}
	d, _ = SetTripType(d, models.TripRoundTrip)
	d, err := SetDateTime(d, "2026-03-05", "18:00", true)
	if err != nil {
		t.Fatalf("set return: %v", err)
	}
	d, _ = SetTripType(d, models.TripOneWay)
	if d.Configuration.ReturnDate != "" || d.Configuration.ReturnTime != "" {
		t.Fatalf("one way must clear the return leg, got %+v", d.Configuration)
	}
}

func TestSetDateTimeNormalizes(t *testing.T) {
	d := models.NewDraft(models.ProductTransfer)
	d, err := SetDateTime(d, " 2026-03-02 ", "8:05", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Configuration.OutboundDate != "2026-03-02" || d.Configuration.OutboundTime != "08:05" {
		t.Fatalf("unexpected %+v", d.Configuration)
	}
	if _, err := SetDateTime(d, "02/03/2026", "08:00", false); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for date, got %v", err)
	}
	if _, err := SetDateTime(d, "2026-03-02", "noon", false); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for time, got %v", err)
	}
}

func TestSetPassengersAndOptionsValidation(t *testing.T) {
	d := models.NewDraft(models.ProductTransfer)
	if _, err := SetPassengers(d, 0, 0); !domain.IsValidation(err) {
		t.Fatalf("zero passengers must fail, got %v", err)
	}
	if _, err := SetPassengers(d, 1, -1); !domain.IsValidation(err) {
		t.Fatalf("negative luggage must fail, got %v", err)
	}
	bad := [][]models.SelectedOption{
		{{OptionID: "", Quantity: 1}},
		{{OptionID: "a", Quantity: 1}, {OptionID: "a", Quantity: 2}},
		{{OptionID: "a", Quantity: 0}},
		{{OptionID: "a", Quantity: 1, UnitPrice: -1}},
	}
	for i, opts := range bad {
		if _, err := SetOptions(d, opts); !domain.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	out, err := SetOptions(d, []models.SelectedOption{{OptionID: "b", Quantity: 1}, {OptionID: "a", Quantity: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.SelectedOptions[0].OptionID != "b" || out.SelectedOptions[1].OptionID != "a" {
		t.Fatalf("order must be kept, got %+v", out.SelectedOptions)
	}
}

func TestDropRoute(t *testing.T) {
	d := models.NewDraft(models.ProductTransfer)
	d, _ = SelectRoute(d, transferRoute("a"))
	d, _ = SetVehicleType(d, "sedan")
	out := DropRoute(d)
	if out.Route != nil || out.Configuration.VehicleType != "" {
		t.Fatalf("route and vehicle should be gone, got %+v", out)
	}
	if d.Route == nil {
		t.Fatalf("input must not be mutated")
	}
}
