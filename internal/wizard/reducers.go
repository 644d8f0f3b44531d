package wizard

import (
	"strings"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/utils"
)

// Error message constants for wizard intents.
const (
	ErrMsgRouteRequired       = "route id is required"
	ErrMsgRouteProduct        = "route belongs to another product"
	ErrMsgVehicleRequired     = "vehicle type is required"
	ErrMsgVehicleUnknown      = "vehicle type is not offered on this route"
	ErrMsgTripTypeUnknown     = "trip type must be one_way or round_trip"
	ErrMsgRoundTripProduct    = "round trips are only available for transfers"
	ErrMsgReturnNeedsRound    = "return date/time requires a round trip"
	ErrMsgPassengersMin       = "passenger count must be at least 1"
	ErrMsgLuggageNegative     = "luggage count cannot be negative"
	ErrMsgOptionIDRequired    = "option id is required"
	ErrMsgOptionDuplicate     = "option listed more than once"
	ErrMsgOptionQuantity      = "option quantity must be at least 1"
	ErrMsgOptionPriceNegative = "option unit price cannot be negative"
)

// invalidatePricing drops the breakdown and moves the revision so that any
// calculation issued for the previous inputs is recognised as stale.
func invalidatePricing(d *models.BookingDraft) {
	d.Pricing = nil
	d.PricingState.Revision++
	d.PricingState.IsCalculating = false
	d.PricingState.Error = ""
}

// SelectRoute sets the route and clears everything chosen for the previous one.
func SelectRoute(d models.BookingDraft, route models.RouteSelection) (models.BookingDraft, error) {
	route.ID = strings.TrimSpace(route.ID)
	if route.ID == "" {
		return d, domain.ValidationError{Field: "route_id", Msg: ErrMsgRouteRequired}
	}
	if route.Product == "" {
		route.Product = d.Product
	}
	if route.Product != d.Product {
		return d, domain.ValidationError{Field: "route_id", Msg: ErrMsgRouteProduct}
	}
	out := d.Clone()
	r := route
	r.Vehicles = append([]models.VehicleOption(nil), route.Vehicles...)
	out.Route = &r
	out.Configuration.VehicleType = ""
	out.SelectedOptions = []models.SelectedOption{}
	invalidatePricing(&out)
	return out, nil
}

func SetVehicleType(d models.BookingDraft, vehicle string) (models.BookingDraft, error) {
	vehicle = strings.TrimSpace(vehicle)
	if vehicle == "" {
		return d, domain.ValidationError{Field: "vehicle_type", Msg: ErrMsgVehicleRequired}
	}
	if d.Route != nil && len(d.Route.Vehicles) > 0 {
		if _, ok := d.Route.Vehicle(vehicle); !ok {
			return d, domain.ValidationError{Field: "vehicle_type", Msg: ErrMsgVehicleUnknown}
		}
	}
	out := d.Clone()
	out.Configuration.VehicleType = vehicle
	invalidatePricing(&out)
	return out, nil
}

func SetTripType(d models.BookingDraft, trip models.TripType) (models.BookingDraft, error) {
	switch trip {
	case models.TripOneWay:
	case models.TripRoundTrip:
		if d.Product != models.ProductTransfer {
			return d, domain.ValidationError{Field: "trip_type", Msg: ErrMsgRoundTripProduct}
		}
	default:
		return d, domain.ValidationError{Field: "trip_type", Msg: ErrMsgTripTypeUnknown}
	}
	out := d.Clone()
	out.Configuration.TripType = trip
	if trip == models.TripOneWay {
		out.Configuration.ReturnDate = ""
		out.Configuration.ReturnTime = ""
	}
	invalidatePricing(&out)
	return out, nil
}

// SetDateTime sets the outbound pair, or the return pair when isReturn.
func SetDateTime(d models.BookingDraft, date, clock string, isReturn bool) (models.BookingDraft, error) {
	field := "outbound"
	if isReturn {
		field = "return"
		if d.Configuration.TripType != models.TripRoundTrip {
			return d, domain.ValidationError{Field: "return_date", Msg: ErrMsgReturnNeedsRound}
		}
	}
	date = strings.TrimSpace(date)
	parsed, err := utils.ParseDate(date, nil)
	if err != nil {
		return d, domain.ValidationError{Field: field + "_date", Msg: "date must be YYYY-MM-DD", Err: err}
	}
	hhmm, err := utils.NormalizeClock(clock)
	if err != nil {
		return d, domain.ValidationError{Field: field + "_time", Msg: err.Error(), Err: err}
	}
	date = parsed.Format("2006-01-02")

	out := d.Clone()
	if isReturn {
		out.Configuration.ReturnDate = date
		out.Configuration.ReturnTime = hhmm
	} else {
		out.Configuration.OutboundDate = date
		out.Configuration.OutboundTime = hhmm
	}
	invalidatePricing(&out)
	return out, nil
}

func SetPassengers(d models.BookingDraft, count, luggage int) (models.BookingDraft, error) {
	if count < 1 {
		return d, domain.ValidationError{Field: "passenger_count", Msg: ErrMsgPassengersMin}
	}
	if luggage < 0 {
		return d, domain.ValidationError{Field: "luggage_count", Msg: ErrMsgLuggageNegative}
	}
	out := d.Clone()
	out.Configuration.PassengerCount = count
	out.Configuration.LuggageCount = luggage
	invalidatePricing(&out)
	return out, nil
}

// SetOptions replaces the selected options, keeping their order.
func SetOptions(d models.BookingDraft, opts []models.SelectedOption) (models.BookingDraft, error) {
	clean := make([]models.SelectedOption, 0, len(opts))
	seen := map[string]bool{}
	for _, o := range opts {
		o.OptionID = strings.TrimSpace(o.OptionID)
		o.Name = strings.TrimSpace(o.Name)
		switch {
		case o.OptionID == "":
			return d, domain.ValidationError{Field: "selected_options", Msg: ErrMsgOptionIDRequired}
		case seen[o.OptionID]:
			return d, domain.ValidationError{Field: "selected_options", Msg: ErrMsgOptionDuplicate + ": " + o.OptionID}
		case o.Quantity < 1:
			return d, domain.ValidationError{Field: "selected_options", Msg: ErrMsgOptionQuantity + ": " + o.OptionID}
		case o.UnitPrice < 0:
			return d, domain.ValidationError{Field: "selected_options", Msg: ErrMsgOptionPriceNegative + ": " + o.OptionID}
		}
		seen[o.OptionID] = true
		clean = append(clean, o)
	}
	out := d.Clone()
	out.SelectedOptions = clean
	invalidatePricing(&out)
	return out, nil
}

// SetContact merges the present patch fields. Contact is not priced.
func SetContact(d models.BookingDraft, patch models.ContactPatch) models.BookingDraft {
	out := d.Clone()
	c := &out.Contact
	if patch.PickupAddress != nil {
		c.PickupAddress = utils.NormalizeSpace(*patch.PickupAddress)
	}
	if patch.DropoffAddress != nil {
		c.DropoffAddress = utils.NormalizeSpace(*patch.DropoffAddress)
	}
	if patch.ContactName != nil {
		c.ContactName = utils.NormalizeSpace(*patch.ContactName)
	}
	if patch.ContactPhone != nil {
		c.ContactPhone = utils.NormalizePhone(*patch.ContactPhone)
	}
	if patch.SpecialRequirements != nil {
		c.SpecialRequirements = strings.TrimSpace(*patch.SpecialRequirements)
	}
	return out
}

// DropRoute removes a route that is no longer offered, with everything depending on it.
func DropRoute(d models.BookingDraft) models.BookingDraft {
	out := d.Clone()
	out.Route = nil
	out.Configuration.VehicleType = ""
	out.SelectedOptions = []models.SelectedOption{}
	invalidatePricing(&out)
	return out
}
