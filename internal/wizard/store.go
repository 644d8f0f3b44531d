// Package wizard is the booking wizard state machine: pure reducers and step
// predicates plus a constructed, single-writer Store that persists every
// mutation and notifies subscribers.
package wizard

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/utils"

	"go.uber.org/zap"
)

// DraftStorage is the durable key/value boundary for serialized drafts.
type DraftStorage interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, raw []byte) error
	Delete(key string) error
}

// RouteLookup resolves a route id to its current catalog entry.
// It returns domain.NotFoundError when the route is no longer offered.
type RouteLookup interface {
	Route(product models.Product, id string) (models.RouteSelection, error)
}

type EventKind string

const (
	EventChanged             EventKind = "changed"
	EventPricedInputsChanged EventKind = "priced_inputs_changed"
	EventPricingUpdated      EventKind = "pricing_updated"
	EventReset               EventKind = "reset"
)

// Event is delivered to subscribers after a mutation, in mutation order.
type Event struct {
	Kind  EventKind
	Draft models.BookingDraft
}

// Ticket ties a pricing calculation to the inputs it was issued for.
type Ticket struct {
	Revision uint64
	Seq      uint64
}

type Options struct {
	Product   models.Product
	SessionID string
	Storage   DraftStorage
	Routes    RouteLookup
	Policy    Policy
	Now       func() time.Time
	Logger    *zap.Logger
}

type Store struct {
	mu    sync.Mutex
	draft models.BookingDraft

	product    models.Product
	key        string
	storage    DraftStorage
	routes     RouteLookup
	policy     Policy
	now        func() time.Time
	log        *zap.Logger
	submitting bool

	// notifyMu is taken before mu is released so events leave in mutation order.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[int]func(Event)
	nextSub  int
}

// Open builds a store and rehydrates it from storage. Records from another
// schema version, or ones that cannot be decoded, are discarded.
func Open(opts Options) (*Store, error) {
	if !opts.Product.Valid() {
		return nil, domain.ValidationError{Field: "product", Msg: "unknown product " + string(opts.Product)}
	}
	if strings.TrimSpace(opts.SessionID) == "" {
		return nil, domain.ValidationError{Field: "session_id", Msg: "session id is required"}
	}
	s := &Store{
		draft:   models.NewDraft(opts.Product),
		product: opts.Product,
		key:     StorageKey(opts.Product, opts.SessionID),
		storage: opts.Storage,
		routes:  opts.Routes,
		policy:  opts.Policy,
		now:     opts.Now,
		log:     utils.OrNop(opts.Logger).With(zap.String("draft_key", StorageKey(opts.Product, opts.SessionID))),
		subs:    map[int]func(Event){},
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.policy.Location == nil {
		s.policy.Location = time.Local
	}
	s.rehydrate()
	return s, nil
}

func (s *Store) rehydrate() {
	if s.storage == nil {
		return
	}
	raw, found, err := s.storage.Load(s.key)
	if err != nil {
		s.log.Warn("draft load failed, starting empty", zap.Error(err))
		return
	}
	if !found {
		return
	}
	d, ok, err := Deserialize(raw, s.product)
	if err != nil || !ok {
		s.log.Info("discarding incompatible draft record", zap.Error(err))
		if derr := s.storage.Delete(s.key); derr != nil {
			s.log.Warn("draft delete failed", zap.Error(derr))
		}
		return
	}
	d = s.refreshRoute(d)
	d.CurrentStep = ClampStep(d, s.now(), s.policy)
	s.draft = d
	s.persistLocked()
}

// refreshRoute re-checks the stored route against the catalog. A route that is
// gone is dropped; one whose metadata changed replaces the stored copy and the
// stored pricing, which was computed from the old metadata.
func (s *Store) refreshRoute(d models.BookingDraft) models.BookingDraft {
	if d.Route == nil || s.routes == nil {
		return d
	}
	fresh, err := s.routes.Route(s.product, d.Route.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			s.log.Info("stored route no longer offered", zap.String("route_id", d.Route.ID))
			return DropRoute(d)
		}
		s.log.Warn("route lookup failed, keeping stored route", zap.Error(err))
		return d
	}
	if fresh.Product == "" {
		fresh.Product = s.product
	}
	if sameRoute(*d.Route, fresh) {
		return d
	}
	out := d.Clone()
	out.Route = &fresh
	if _, ok := fresh.Vehicle(out.Configuration.VehicleType); len(fresh.Vehicles) > 0 && !ok {
		out.Configuration.VehicleType = ""
	}
	invalidatePricing(&out)
	return out
}

func sameRoute(a, b models.RouteSelection) bool {
	if len(a.Vehicles) == 0 && len(b.Vehicles) == 0 {
		a.Vehicles, b.Vehicles = nil, nil
	}
	return reflect.DeepEqual(a, b)
}

// Snapshot returns a deep copy of the current draft.
func (s *Store) Snapshot() models.BookingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

func (s *Store) Product() models.Product { return s.product }

// Subscribe registers fn for every subsequent event. Callbacks run on the
// mutating goroutine and must not call back into the store synchronously.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// commit installs next, persists it and notifies. Caller holds s.mu; commit releases it.
func (s *Store) commit(next models.BookingDraft, kind EventKind, persist bool) {
	if kind == EventChanged && next.PricingState.Revision != s.draft.PricingState.Revision {
		kind = EventPricedInputsChanged
	}
	s.draft = next
	if persist {
		s.persistLocked()
	}
	snap := s.draft.Clone()

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.subsMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(Event{Kind: kind, Draft: snap.Clone()})
	}
}

func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	raw, err := Serialize(s.draft)
	if err != nil {
		s.log.Error("draft serialize failed", zap.Error(err))
		return
	}
	if err := s.storage.Save(s.key, raw); err != nil {
		s.log.Error("draft save failed", zap.Error(err))
	}
}

type reducer func(models.BookingDraft) (models.BookingDraft, error)

func (s *Store) apply(fn reducer) error {
	s.mu.Lock()
	next, err := fn(s.draft)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.commit(next, EventChanged, true)
	return nil
}

func (s *Store) SelectRoute(route models.RouteSelection) error {
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		return SelectRoute(d, route)
	})
}

// SelectRouteByID resolves id through the catalog before selecting it.
func (s *Store) SelectRouteByID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ValidationError{Field: "route_id", Msg: ErrMsgRouteRequired}
	}
	if s.routes == nil {
		return domain.InternalError{Msg: "route catalog unavailable"}
	}
	route, err := s.routes.Route(s.product, id)
	if err != nil {
		return err
	}
	return s.SelectRoute(route)
}

func (s *Store) SetVehicleType(vehicle string) error {
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		return SetVehicleType(d, vehicle)
	})
}

func (s *Store) SetTripType(trip models.TripType) error {
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		return SetTripType(d, trip)
	})
}

func (s *Store) SetDateTime(date, clock string, isReturn bool) error {
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		return SetDateTime(d, date, clock, isReturn)
	})
}

func (s *Store) SetPassengers(count, luggage int) error {
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		return SetPassengers(d, count, luggage)
	})
}

func (s *Store) SetOptions(opts []models.SelectedOption) error {
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		return SetOptions(d, opts)
	})
}

func (s *Store) SetContact(patch models.ContactPatch) error {
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		return SetContact(d, patch), nil
	})
}

// IsStepValid evaluates step against the current draft and clock.
func (s *Store) IsStepValid(step models.Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StepValid(s.draft, step, s.now(), s.policy)
}

// Validity evaluates every step against the current draft and clock.
func (s *Store) Validity() map[models.Step]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Validity(s.draft, s.now(), s.policy)
}

// MissingFields names what keeps the summary step invalid.
func (s *Store) MissingFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MissingFields(s.draft, s.now(), s.policy)
}

func (s *Store) GoToStep(target models.Step) error {
	if !target.Valid() {
		return domain.ValidationError{Field: "step", Msg: "unknown step " + string(target)}
	}
	return s.apply(func(d models.BookingDraft) (models.BookingDraft, error) {
		if blocker, blocked := FirstBlocker(d, target, s.now(), s.policy); blocked {
			return d, domain.StepBlockedError{Target: string(target), Blocker: string(blocker)}
		}
		out := d.Clone()
		out.CurrentStep = target
		return out, nil
	})
}

// Next advances one step; a no-op on the terminal step.
func (s *Store) Next() error {
	return s.move(+1)
}

// Previous goes back one step; a no-op on the initial step.
func (s *Store) Previous() error {
	return s.move(-1)
}

func (s *Store) move(delta int) error {
	s.mu.Lock()
	idx := s.draft.CurrentStep.Index() + delta
	s.mu.Unlock()
	if idx < 0 || idx >= len(models.Steps) {
		return nil
	}
	return s.GoToStep(models.Steps[idx])
}

// Reset returns to the empty draft and removes the persisted record.
func (s *Store) Reset() error {
	s.mu.Lock()
	var err error
	if s.storage != nil {
		err = s.storage.Delete(s.key)
	}
	next := models.NewDraft(s.product)
	next.PricingState.Revision = s.draft.PricingState.Revision + 1
	next.PricingState.RequestSeq = s.draft.PricingState.RequestSeq
	s.commit(next, EventReset, false)
	return err
}

// BeginPricing marks a calculation in flight for the current priced inputs.
func (s *Store) BeginPricing() (Ticket, models.BookingDraft, error) {
	s.mu.Lock()
	if missing := PricingPreconditions(s.draft); len(missing) > 0 {
		s.mu.Unlock()
		return Ticket{}, models.BookingDraft{}, domain.MissingRequiredFieldsError{Fields: missing}
	}
	next := s.draft.Clone()
	next.PricingState.RequestSeq++
	next.PricingState.IsCalculating = true
	next.PricingState.Error = ""
	t := Ticket{Revision: next.PricingState.Revision, Seq: next.PricingState.RequestSeq}
	snap := next.Clone()
	s.commit(next, EventChanged, false)
	return t, snap, nil
}

func (s *Store) currentLocked(t Ticket) bool {
	ps := s.draft.PricingState
	return ps.Revision == t.Revision && ps.RequestSeq == t.Seq
}

// ApplyPricing stores b if t still matches the latest inputs and request.
func (s *Store) ApplyPricing(t Ticket, b models.PricingBreakdown) error {
	s.mu.Lock()
	if !s.currentLocked(t) {
		s.mu.Unlock()
		return domain.ErrStaleResponse
	}
	next := s.draft.Clone()
	next.Pricing = &b
	next.PricingState.IsCalculating = false
	next.PricingState.Error = ""
	s.commit(next, EventPricingUpdated, true)
	return nil
}

// FailPricing records msg if t still matches; pricing stays nil.
func (s *Store) FailPricing(t Ticket, msg string) error {
	s.mu.Lock()
	if !s.currentLocked(t) {
		s.mu.Unlock()
		return domain.ErrStaleResponse
	}
	next := s.draft.Clone()
	next.Pricing = nil
	next.PricingState.IsCalculating = false
	next.PricingState.Error = msg
	s.commit(next, EventChanged, false)
	return nil
}

// ErrSubmitting is returned while another submission of the same draft is in flight.
var ErrSubmitting = domain.ConflictError{Resource: "booking", Msg: "submission already in progress"}

// BeginSubmit guards against a second concurrent submission.
func (s *Store) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitting
	}
	s.submitting = true
	return nil
}

func (s *Store) EndSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// PricingPreconditions lists the fields a pricing call needs but d lacks.
func PricingPreconditions(d models.BookingDraft) []string {
	missing := []string{}
	if d.Route == nil {
		missing = append(missing, "route")
	}
	if strings.TrimSpace(d.Configuration.VehicleType) == "" {
		missing = append(missing, "vehicle_type")
	}
	if strings.TrimSpace(d.Configuration.OutboundDate) == "" {
		missing = append(missing, "outbound_date")
	}
	if strings.TrimSpace(d.Configuration.OutboundTime) == "" {
		missing = append(missing, "outbound_time")
	}
	return missing
}
