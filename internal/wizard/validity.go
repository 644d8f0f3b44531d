package wizard

import (
	"strings"
	"time"

	"storefront/internal/domain/models"
	"storefront/internal/utils"
)

// DefaultSameDayBuffer is the minimum lead time for a departure booked today.
const DefaultSameDayBuffer = 2 * time.Hour

// Policy holds the time-sensitive gating parameters.
type Policy struct {
	SameDayBuffer time.Duration
	Location      *time.Location
}

func DefaultPolicy() Policy {
	return Policy{SameDayBuffer: DefaultSameDayBuffer, Location: time.Local}
}

func (p Policy) loc() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// StepValid is the pure validity predicate of one step. Each step re-checks the
// steps it logically depends on, so a later step is never valid on its own.
func StepValid(d models.BookingDraft, step models.Step, now time.Time, p Policy) bool {
	switch step {
	case models.StepRoute:
		return d.Route != nil && strings.TrimSpace(d.Route.ID) != ""
	case models.StepVehicle:
		return strings.TrimSpace(d.Configuration.VehicleType) != ""
	case models.StepDateTime:
		return len(dateTimeProblems(d, now, p)) == 0
	case models.StepPassengers:
		return d.Configuration.PassengerCount > 0
	case models.StepOptions:
		return StepValid(d, models.StepRoute, now, p) &&
			StepValid(d, models.StepVehicle, now, p) &&
			StepValid(d, models.StepDateTime, now, p)
	case models.StepContact:
		return contactComplete(d.Contact) && StepValid(d, models.StepOptions, now, p)
	case models.StepSummary:
		return StepValid(d, models.StepContact, now, p)
	}
	return false
}

// Validity evaluates every step.
func Validity(d models.BookingDraft, now time.Time, p Policy) map[models.Step]bool {
	out := make(map[models.Step]bool, len(models.Steps))
	for _, s := range models.Steps {
		out[s] = StepValid(d, s, now, p)
	}
	return out
}

// MissingFields names what keeps the summary step invalid.
func MissingFields(d models.BookingDraft, now time.Time, p Policy) []string {
	out := []string{}
	if !StepValid(d, models.StepRoute, now, p) {
		out = append(out, "route")
	}
	if !StepValid(d, models.StepVehicle, now, p) {
		out = append(out, "vehicle_type")
	}
	out = append(out, dateTimeProblems(d, now, p)...)
	c := d.Contact
	if strings.TrimSpace(c.ContactName) == "" {
		out = append(out, "contact_name")
	}
	if strings.TrimSpace(c.ContactPhone) == "" {
		out = append(out, "contact_phone")
	}
	return out
}

// FirstBlocker returns the first step before target that is invalid.
func FirstBlocker(d models.BookingDraft, target models.Step, now time.Time, p Policy) (models.Step, bool) {
	idx := target.Index()
	for i := 0; i < idx; i++ {
		if !StepValid(d, models.Steps[i], now, p) {
			return models.Steps[i], true
		}
	}
	return "", false
}

// Reachable reports whether every step before target is valid.
func Reachable(d models.BookingDraft, target models.Step, now time.Time, p Policy) bool {
	if !target.Valid() {
		return false
	}
	_, blocked := FirstBlocker(d, target, now, p)
	return !blocked
}

// ClampStep moves the current step back to the first unmet prerequisite.
func ClampStep(d models.BookingDraft, now time.Time, p Policy) models.Step {
	cur := d.CurrentStep
	if !cur.Valid() {
		return models.StepRoute
	}
	if blocker, blocked := FirstBlocker(d, cur, now, p); blocked {
		return blocker
	}
	return cur
}

func contactComplete(c models.Contact) bool {
	return strings.TrimSpace(c.ContactName) != "" && strings.TrimSpace(c.ContactPhone) != ""
}

// dateTimeProblems returns the field names violating the datetime rules.
func dateTimeProblems(d models.BookingDraft, now time.Time, p Policy) []string {
	cfg := d.Configuration
	loc := p.loc()
	now = now.In(loc)
	today := utils.FormatDate(now, loc)
	earliest := now.Add(p.SameDayBuffer)

	problems := []string{}
	outDate, errDate := utils.ParseDate(cfg.OutboundDate, loc)
	if strings.TrimSpace(cfg.OutboundDate) == "" || errDate != nil {
		problems = append(problems, "outbound_date")
	}
	outAt, errTime := utils.At(cfg.OutboundDate, cfg.OutboundTime, loc)
	if strings.TrimSpace(cfg.OutboundTime) == "" || (errDate == nil && errTime != nil) {
		problems = append(problems, "outbound_time")
	}
	if len(problems) > 0 {
		if cfg.TripType == models.TripRoundTrip {
			problems = append(problems, returnPresence(cfg)...)
		}
		return problems
	}

	if cfg.OutboundDate < today {
		problems = append(problems, "outbound_date")
	} else if cfg.OutboundDate == today && outAt.Before(earliest) {
		problems = append(problems, "outbound_time")
	}

	if cfg.TripType != models.TripRoundTrip {
		return problems
	}
	if missing := returnPresence(cfg); len(missing) > 0 {
		return append(problems, missing...)
	}
	retDate, err := utils.ParseDate(cfg.ReturnDate, loc)
	if err != nil {
		return append(problems, "return_date")
	}
	retAt, err := utils.At(cfg.ReturnDate, cfg.ReturnTime, loc)
	if err != nil {
		return append(problems, "return_time")
	}
	switch {
	case retDate.Before(outDate):
		problems = append(problems, "return_date")
	case retDate.Equal(outDate) && !retAt.After(outAt):
		problems = append(problems, "return_time")
	case cfg.ReturnDate == today && retAt.Before(earliest):
		problems = append(problems, "return_time")
	}
	return problems
}

func returnPresence(cfg models.Configuration) []string {
	out := []string{}
	if strings.TrimSpace(cfg.ReturnDate) == "" {
		out = append(out, "return_date")
	}
	if strings.TrimSpace(cfg.ReturnTime) == "" {
		out = append(out, "return_time")
	}
	return out
}
