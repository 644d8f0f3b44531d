package wizard

import (
	"encoding/json"
	"fmt"

	"storefront/internal/domain/models"
)

// SchemaVersion of the persisted record. Bumping it invalidates every stored draft.
const SchemaVersion = 3

// StorageKey is the versioned key one session's draft is stored under.
func StorageKey(product models.Product, sessionID string) string {
	return fmt.Sprintf("booking_draft_v%d:%s:%s", SchemaVersion, product, sessionID)
}

// PersistsStep reports whether a product keeps the current step across reloads.
func PersistsStep(p models.Product) bool {
	return p == models.ProductTransfer
}

// Record is the persisted allow-list of draft fields.
type Record struct {
	Version             int                      `json:"version"`
	Product             models.Product           `json:"product"`
	RouteID             string                   `json:"route_id,omitempty"`
	RouteData           *models.RouteSelection   `json:"route_data,omitempty"`
	VehicleType         string                   `json:"vehicle_type,omitempty"`
	TripType            models.TripType          `json:"trip_type"`
	OutboundDate        string                   `json:"outbound_date,omitempty"`
	OutboundTime        string                   `json:"outbound_time,omitempty"`
	ReturnDate          string                   `json:"return_date,omitempty"`
	ReturnTime          string                   `json:"return_time,omitempty"`
	PassengerCount      int                      `json:"passenger_count"`
	LuggageCount        int                      `json:"luggage_count"`
	SelectedOptions     []models.SelectedOption  `json:"selected_options"`
	PickupAddress       string                   `json:"pickup_address"`
	DropoffAddress      string                   `json:"dropoff_address"`
	ContactName         string                   `json:"contact_name"`
	ContactPhone        string                   `json:"contact_phone"`
	SpecialRequirements string                   `json:"special_requirements"`
	PricingBreakdown    *models.PricingBreakdown `json:"pricing_breakdown,omitempty"`
	FinalPrice          *float64                 `json:"final_price,omitempty"`
	CurrentStep         models.Step              `json:"current_step,omitempty"`
}

// Serialize encodes the persisted subset of d.
func Serialize(d models.BookingDraft) ([]byte, error) {
	rec := Record{
		Version:             SchemaVersion,
		Product:             d.Product,
		RouteID:             d.RouteID(),
		VehicleType:         d.Configuration.VehicleType,
		TripType:            d.Configuration.TripType,
		OutboundDate:        d.Configuration.OutboundDate,
		OutboundTime:        d.Configuration.OutboundTime,
		ReturnDate:          d.Configuration.ReturnDate,
		ReturnTime:          d.Configuration.ReturnTime,
		PassengerCount:      d.Configuration.PassengerCount,
		LuggageCount:        d.Configuration.LuggageCount,
		SelectedOptions:     d.SelectedOptions,
		PickupAddress:       d.Contact.PickupAddress,
		DropoffAddress:      d.Contact.DropoffAddress,
		ContactName:         d.Contact.ContactName,
		ContactPhone:        d.Contact.ContactPhone,
		SpecialRequirements: d.Contact.SpecialRequirements,
	}
	if rec.SelectedOptions == nil {
		rec.SelectedOptions = []models.SelectedOption{}
	}
	if d.Route != nil {
		r := *d.Route
		rec.RouteData = &r
	}
	if d.Pricing != nil {
		p := *d.Pricing
		rec.PricingBreakdown = &p
		final := p.FinalPrice
		rec.FinalPrice = &final
	}
	if PersistsStep(d.Product) {
		rec.CurrentStep = d.CurrentStep
	}
	return json.Marshal(rec)
}

// Deserialize decodes a record for product. ok is false when the record was
// written by another schema version or for another product; the caller then
// starts from an empty draft.
func Deserialize(raw []byte, product models.Product) (models.BookingDraft, bool, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.NewDraft(product), false, err
	}
	if rec.Version != SchemaVersion || rec.Product != product {
		return models.NewDraft(product), false, nil
	}

	d := models.NewDraft(product)
	if rec.RouteData != nil {
		r := *rec.RouteData
		d.Route = &r
	} else if rec.RouteID != "" {
		d.Route = &models.RouteSelection{ID: rec.RouteID, Product: product}
	}
	d.Configuration = models.Configuration{
		VehicleType:    rec.VehicleType,
		TripType:       rec.TripType,
		OutboundDate:   rec.OutboundDate,
		OutboundTime:   rec.OutboundTime,
		ReturnDate:     rec.ReturnDate,
		ReturnTime:     rec.ReturnTime,
		PassengerCount: rec.PassengerCount,
		LuggageCount:   rec.LuggageCount,
	}
	if d.Configuration.TripType != models.TripRoundTrip {
		d.Configuration.TripType = models.TripOneWay
		d.Configuration.ReturnDate = ""
		d.Configuration.ReturnTime = ""
	}
	if rec.SelectedOptions != nil {
		d.SelectedOptions = rec.SelectedOptions
	}
	d.Contact = models.Contact{
		PickupAddress:       rec.PickupAddress,
		DropoffAddress:      rec.DropoffAddress,
		ContactName:         rec.ContactName,
		ContactPhone:        rec.ContactPhone,
		SpecialRequirements: rec.SpecialRequirements,
	}
	if rec.PricingBreakdown != nil {
		p := *rec.PricingBreakdown
		d.Pricing = &p
	}
	if PersistsStep(product) && rec.CurrentStep.Valid() {
		d.CurrentStep = rec.CurrentStep
	}
	return d, true, nil
}
