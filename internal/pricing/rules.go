// Package pricing holds the client-side pricing rules: time-of-day surcharge
// bands, round-trip discount eligibility and an advisory preview breakdown.
// The remote pricing service stays authoritative; nothing here does I/O.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/utils"
)

type Category string

const (
	CategoryStandard Category = "standard"
	CategoryPeak     Category = "peak"
	CategoryMidnight Category = "midnight"
)

// Band is an inclusive minute-of-day range. Start > End wraps past midnight.
type Band struct {
	Category Category
	Start    int
	End      int
	Percent  float64
}

func (b Band) Contains(minute int) bool {
	if b.Start <= b.End {
		return minute >= b.Start && minute <= b.End
	}
	return minute >= b.Start || minute <= b.End
}

// Rules is the surcharge configuration. First matching band wins.
type Rules struct {
	Bands []Band
}

func DefaultBands() []Band {
	return []Band{
		{Category: CategoryPeak, Start: 6 * 60, End: 9*60 + 59, Percent: 15},
		{Category: CategoryPeak, Start: 17 * 60, End: 19*60 + 59, Percent: 15},
		{Category: CategoryMidnight, Start: 22 * 60, End: 5*60 + 59, Percent: 25},
	}
}

func DefaultRules() Rules {
	return Rules{Bands: DefaultBands()}
}

// Classify maps a minute of day to its category and surcharge percent.
func (r Rules) Classify(minute int) (Category, float64) {
	for _, b := range r.Bands {
		if b.Contains(minute) {
			return b.Category, b.Percent
		}
	}
	return CategoryStandard, 0
}

// ClassifyClock is Classify for an HH:MM string.
func (r Rules) ClassifyClock(clock string) (Category, float64, error) {
	m, err := utils.ParseClock(clock)
	if err != nil {
		return CategoryStandard, 0, err
	}
	c, pct := r.Classify(m)
	return c, pct, nil
}

// ParseBands reads "peak=06:00-09:59@15;midnight=22:00-05:59@25".
// An empty string yields the default bands.
func ParseBands(raw string) ([]Band, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBands(), nil
	}
	var out []Band
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rest, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("band %q: missing '='", part)
		}
		span, pctRaw, ok := strings.Cut(rest, "@")
		if !ok {
			return nil, fmt.Errorf("band %q: missing '@percent'", part)
		}
		from, to, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("band %q: range must be HH:MM-HH:MM", part)
		}
		start, err := utils.ParseClock(from)
		if err != nil {
			return nil, fmt.Errorf("band %q: %w", part, err)
		}
		end, err := utils.ParseClock(to)
		if err != nil {
			return nil, fmt.Errorf("band %q: %w", part, err)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(pctRaw), 64)
		if err != nil || pct < 0 {
			return nil, fmt.Errorf("band %q: invalid percent", part)
		}
		out = append(out, Band{
			Category: Category(strings.ToLower(strings.TrimSpace(name))),
			Start:    start,
			End:      end,
			Percent:  pct,
		})
	}
	if len(out) == 0 {
		return DefaultBands(), nil
	}
	return out, nil
}

// RoundTripDiscountPercent returns the route discount percent when it applies, else 0.
func RoundTripDiscountPercent(d models.BookingDraft) float64 {
	if !d.IsRoundTrip() || d.Route == nil || !d.Route.RoundTripDiscountEnabled {
		return 0
	}
	if d.Route.RoundTripDiscountPercent <= 0 {
		return 0
	}
	return math.Min(d.Route.RoundTripDiscountPercent, 100)
}

// LegBasePrice is the one-way base: the chosen vehicle price when listed, else the route base.
func LegBasePrice(d models.BookingDraft) float64 {
	if d.Route == nil {
		return 0
	}
	if v, ok := d.Route.Vehicle(d.Configuration.VehicleType); ok && v.BasePrice > 0 {
		return v.BasePrice
	}
	return d.Route.BasePrice
}

// OptionsTotal sums unit price times quantity.
func OptionsTotal(opts []models.SelectedOption) float64 {
	total := 0.0
	for _, o := range opts {
		total += o.UnitPrice * float64(o.Quantity)
	}
	return utils.RoundMoney(total)
}

// Preview computes the advisory breakdown shown before the service answers.
func (r Rules) Preview(d models.BookingDraft) (models.PricingBreakdown, error) {
	missing := []string{}
	if d.Route == nil {
		missing = append(missing, "route")
	}
	if strings.TrimSpace(d.Configuration.OutboundTime) == "" {
		missing = append(missing, "outbound_time")
	}
	if d.IsRoundTrip() && strings.TrimSpace(d.Configuration.ReturnTime) == "" {
		missing = append(missing, "return_time")
	}
	if len(missing) > 0 {
		return models.PricingBreakdown{}, domain.MissingRequiredFieldsError{Fields: missing}
	}

	leg := LegBasePrice(d)
	base := leg
	surcharge := 0.0

	_, outPct, err := r.ClassifyClock(d.Configuration.OutboundTime)
	if err != nil {
		return models.PricingBreakdown{}, domain.ValidationError{Field: "outbound_time", Err: err}
	}
	if d.Route.TimeSurchargeEnabled {
		surcharge += leg * outPct / 100
	}
	if d.IsRoundTrip() {
		base += leg
		_, retPct, err := r.ClassifyClock(d.Configuration.ReturnTime)
		if err != nil {
			return models.PricingBreakdown{}, domain.ValidationError{Field: "return_time", Err: err}
		}
		if d.Route.TimeSurchargeEnabled {
			surcharge += leg * retPct / 100
		}
	}

	discount := base * RoundTripDiscountPercent(d) / 100
	options := OptionsTotal(d.SelectedOptions)

	out := models.PricingBreakdown{
		BasePrice:         utils.RoundMoney(base),
		TimeSurcharge:     utils.RoundMoney(surcharge),
		RoundTripDiscount: utils.RoundMoney(discount),
		OptionsTotal:      options,
		Currency:          d.Route.Currency,
	}
	out.FinalPrice = utils.RoundMoney(out.BasePrice + out.TimeSurcharge - out.RoundTripDiscount + out.OptionsTotal)
	return out, nil
}

// Plausible reports whether remote is within tolerance (a fraction, e.g. 0.5) of preview.
// A zero preview only accepts a zero remote total.
func Plausible(preview, remote models.PricingBreakdown, tolerance float64) bool {
	if tolerance < 0 {
		tolerance = 0
	}
	if preview.FinalPrice == 0 {
		return remote.FinalPrice == 0
	}
	diff := math.Abs(remote.FinalPrice - preview.FinalPrice)
	return diff <= math.Abs(preview.FinalPrice)*tolerance
}

// Sane rejects negative or non-finite amounts.
func Sane(b models.PricingBreakdown) error {
	for name, v := range map[string]float64{
		"base_price":          b.BasePrice,
		"time_surcharge":      b.TimeSurcharge,
		"round_trip_discount": b.RoundTripDiscount,
		"options_total":       b.OptionsTotal,
		"final_price":         b.FinalPrice,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("invalid %s: %v", name, v)
		}
	}
	return nil
}
