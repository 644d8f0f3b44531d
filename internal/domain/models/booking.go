package models

// Product identifies which storefront line a draft belongs to.
type Product string

const (
	ProductTransfer Product = "transfer"
	ProductTour     Product = "tour"
	ProductEvent    Product = "event"
)

// Valid reports whether p is one of the known product lines.
func (p Product) Valid() bool {
	switch p {
	case ProductTransfer, ProductTour, ProductEvent:
		return true
	}
	return false
}

type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
)

// VehicleOption is a vehicle class for transfers, or the package / ticket tier
// for tours and events.
type VehicleOption struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Capacity  int     `json:"capacity,omitempty"`
	BasePrice float64 `json:"base_price,omitempty"`
}

// RouteSelection carries the chosen route/product with its static pricing metadata.
type RouteSelection struct {
	ID          string  `json:"id"`
	Product     Product `json:"product"`
	Name        string  `json:"name"`
	Origin      string  `json:"origin,omitempty"`
	Destination string  `json:"destination,omitempty"`
	BasePrice   float64 `json:"base_price"`
	Currency    string  `json:"currency"`

	Vehicles []VehicleOption `json:"vehicles,omitempty"`

	TimeSurchargeEnabled     bool    `json:"time_surcharge_enabled"`
	RoundTripDiscountEnabled bool    `json:"round_trip_discount_enabled"`
	RoundTripDiscountPercent float64 `json:"round_trip_discount_percent"`
}

// Vehicle returns the listed option with the given id.
func (r RouteSelection) Vehicle(id string) (VehicleOption, bool) {
	for _, v := range r.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return VehicleOption{}, false
}

// Configuration holds the trip parameters. Dates are YYYY-MM-DD, times HH:MM.
type Configuration struct {
	VehicleType    string   `json:"vehicle_type"`
	TripType       TripType `json:"trip_type"`
	OutboundDate   string   `json:"outbound_date"`
	OutboundTime   string   `json:"outbound_time"`
	ReturnDate     string   `json:"return_date,omitempty"`
	ReturnTime     string   `json:"return_time,omitempty"`
	PassengerCount int      `json:"passenger_count"`
	LuggageCount   int      `json:"luggage_count"`
}

type SelectedOption struct {
	OptionID    string  `json:"option_id"`
	Quantity    int     `json:"quantity"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unit_price"`
	Description string  `json:"description,omitempty"`
}

type Contact struct {
	PickupAddress       string `json:"pickup_address,omitempty"`
	DropoffAddress      string `json:"dropoff_address,omitempty"`
	ContactName         string `json:"contact_name"`
	ContactPhone        string `json:"contact_phone"`
	SpecialRequirements string `json:"special_requirements,omitempty"`
}

// ContactPatch supports PATCH-style merges via pointer presence.
type ContactPatch struct {
	PickupAddress       *string `json:"pickup_address"`
	DropoffAddress      *string `json:"dropoff_address"`
	ContactName         *string `json:"contact_name"`
	ContactPhone        *string `json:"contact_phone"`
	SpecialRequirements *string `json:"special_requirements"`
}

type PricingBreakdown struct {
	BasePrice         float64 `json:"base_price"`
	TimeSurcharge     float64 `json:"time_surcharge"`
	RoundTripDiscount float64 `json:"round_trip_discount"`
	OptionsTotal      float64 `json:"options_total"`
	FinalPrice        float64 `json:"final_price"`
	Currency          string  `json:"currency"`
}

// PricingState is transient calculation bookkeeping.
// Revision moves on every priced-input change, RequestSeq on every issued calculation.
type PricingState struct {
	IsCalculating bool   `json:"is_calculating"`
	Error         string `json:"error,omitempty"`
	Revision      uint64 `json:"revision"`
	RequestSeq    uint64 `json:"request_seq"`
}

// BookingDraft is the in-progress booking of one session.
type BookingDraft struct {
	Product         Product           `json:"product"`
	Route           *RouteSelection   `json:"route"`
	Configuration   Configuration     `json:"configuration"`
	SelectedOptions []SelectedOption  `json:"selected_options"`
	Contact         Contact           `json:"contact"`
	Pricing         *PricingBreakdown `json:"pricing"`
	CurrentStep     Step              `json:"current_step"`
	PricingState    PricingState      `json:"pricing_state"`
}

// NewDraft returns the empty initial draft for a product.
func NewDraft(p Product) BookingDraft {
	return BookingDraft{
		Product:         p,
		Configuration:   Configuration{TripType: TripOneWay, PassengerCount: 1},
		SelectedOptions: []SelectedOption{},
		CurrentStep:     StepRoute,
	}
}

// Clone returns a deep copy so reducers never share slices or pointers.
func (d BookingDraft) Clone() BookingDraft {
	out := d
	if d.Route != nil {
		r := *d.Route
		r.Vehicles = append([]VehicleOption(nil), d.Route.Vehicles...)
		out.Route = &r
	}
	if d.Pricing != nil {
		p := *d.Pricing
		out.Pricing = &p
	}
	out.SelectedOptions = append(make([]SelectedOption, 0, len(d.SelectedOptions)), d.SelectedOptions...)
	return out
}

// RouteID returns the selected route id or "".
func (d BookingDraft) RouteID() string {
	if d.Route == nil {
		return ""
	}
	return d.Route.ID
}

// IsRoundTrip reports whether the draft is configured for a return leg.
func (d BookingDraft) IsRoundTrip() bool {
	return d.Configuration.TripType == TripRoundTrip
}
