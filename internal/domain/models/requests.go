package models

// PricingOption is the priced part of a selected option.
type PricingOption struct {
	OptionID string `json:"option_id"`
	Quantity int    `json:"quantity"`
}

// PricingRequest is sent to the remote pricing service.
type PricingRequest struct {
	RouteID           string          `json:"route_id"`
	VehicleType       string          `json:"vehicle_type"`
	TripType          TripType        `json:"trip_type"`
	BookingTime       string          `json:"booking_time"`
	ReturnTime        string          `json:"return_time,omitempty"`
	SelectedOptions   []PricingOption `json:"selected_options"`
	SurchargeCategory string          `json:"surcharge_category,omitempty"`
}

// BookingRequest is posted to the cart/order service on submission.
type BookingRequest struct {
	Product             Product          `json:"product"`
	RouteID             string           `json:"route_id"`
	VehicleType         string           `json:"vehicle_type"`
	TripType            TripType         `json:"trip_type"`
	OutboundDateTime    string           `json:"outbound_datetime"`
	ReturnDateTime      string           `json:"return_datetime,omitempty"`
	PassengerCount      int              `json:"passenger_count"`
	LuggageCount        int              `json:"luggage_count"`
	PickupAddress       string           `json:"pickup_address,omitempty"`
	DropoffAddress      string           `json:"dropoff_address,omitempty"`
	ContactName         string           `json:"contact_name"`
	ContactPhone        string           `json:"contact_phone"`
	SelectedOptions     []SelectedOption `json:"selected_options"`
	SpecialRequirements string           `json:"special_requirements,omitempty"`
}

// BookingResult is the cart service answer.
type BookingResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
