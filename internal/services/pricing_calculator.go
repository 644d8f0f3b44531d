package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pricing"
	"storefront/internal/utils"
	"storefront/internal/wizard"

	"go.uber.org/zap"
)

// PricingAPI is the authoritative remote pricing service.
type PricingAPI interface {
	Calculate(ctx context.Context, req models.PricingRequest) (models.PricingBreakdown, error)
}

// PricingCalculator runs remote pricing for one wizard. A new call cancels the
// one still in flight; whichever answers late is dropped by the store ticket check.
type PricingCalculator struct {
	Client    PricingAPI
	Rules     pricing.Rules
	Tolerance float64
	Timeout   time.Duration
	Logger    *zap.Logger

	mu       sync.Mutex
	inflight context.CancelFunc
	gen      uint64
}

// Calculate prices the store's current draft and writes the result back.
func (c *PricingCalculator) Calculate(ctx context.Context, store *wizard.Store) (models.PricingBreakdown, error) {
	log := utils.OrNop(c.Logger)

	ticket, draft, err := store.BeginPricing()
	if err != nil {
		return models.PricingBreakdown{}, err
	}

	req, err := c.BuildRequest(draft)
	if err != nil {
		if ferr := store.FailPricing(ticket, err.Error()); ferr != nil {
			return models.PricingBreakdown{}, ferr
		}
		return models.PricingBreakdown{}, err
	}

	callCtx, done := c.track(ctx)
	defer done()

	remote, err := c.Client.Calculate(callCtx, req)
	if err == nil {
		if serr := pricing.Sane(remote); serr != nil {
			err = domain.PricingServiceError{Msg: "malformed pricing response", Err: serr}
		}
	}
	if err != nil {
		msg := pricingFailureMessage(err)
		if ferr := store.FailPricing(ticket, msg); ferr != nil {
			log.Debug("pricing failure superseded", zap.Uint64("seq", ticket.Seq))
			return models.PricingBreakdown{}, ferr
		}
		log.Warn("pricing call failed",
			zap.String("route_id", req.RouteID),
			zap.Uint64("seq", ticket.Seq),
			zap.Error(err),
		)
		return models.PricingBreakdown{}, err
	}

	if strings.TrimSpace(remote.Currency) == "" && draft.Route != nil {
		remote.Currency = draft.Route.Currency
	}
	if preview, perr := c.Rules.Preview(draft); perr == nil && !pricing.Plausible(preview, remote, c.Tolerance) {
		log.Warn("remote price far from preview",
			zap.String("route_id", req.RouteID),
			zap.Float64("preview", preview.FinalPrice),
			zap.Float64("remote", remote.FinalPrice),
		)
	}

	if err := store.ApplyPricing(ticket, remote); err != nil {
		log.Debug("pricing response superseded", zap.Uint64("seq", ticket.Seq))
		return models.PricingBreakdown{}, err
	}
	log.Info("pricing updated",
		zap.String("route_id", req.RouteID),
		zap.Uint64("revision", ticket.Revision),
		zap.Float64("final_price", remote.FinalPrice),
	)
	return remote, nil
}

// BuildRequest converts the priced inputs of d into the remote request.
func (c *PricingCalculator) BuildRequest(d models.BookingDraft) (models.PricingRequest, error) {
	if missing := wizard.PricingPreconditions(d); len(missing) > 0 {
		return models.PricingRequest{}, domain.MissingRequiredFieldsError{Fields: missing}
	}
	cfg := d.Configuration
	outbound, err := utils.CombineDateTime(cfg.OutboundDate, cfg.OutboundTime)
	if err != nil {
		return models.PricingRequest{}, domain.ValidationError{Field: "outbound_time", Msg: err.Error(), Err: err}
	}
	req := models.PricingRequest{
		RouteID:         d.Route.ID,
		VehicleType:     cfg.VehicleType,
		TripType:        cfg.TripType,
		BookingTime:     outbound,
		SelectedOptions: make([]models.PricingOption, 0, len(d.SelectedOptions)),
	}
	if d.IsRoundTrip() && cfg.ReturnDate != "" && cfg.ReturnTime != "" {
		ret, err := utils.CombineDateTime(cfg.ReturnDate, cfg.ReturnTime)
		if err != nil {
			return models.PricingRequest{}, domain.ValidationError{Field: "return_time", Msg: err.Error(), Err: err}
		}
		req.ReturnTime = ret
	}
	for _, o := range d.SelectedOptions {
		req.SelectedOptions = append(req.SelectedOptions, models.PricingOption{OptionID: o.OptionID, Quantity: o.Quantity})
	}
	if d.Route.TimeSurchargeEnabled {
		if cat, _, err := c.Rules.ClassifyClock(cfg.OutboundTime); err == nil {
			req.SurchargeCategory = string(cat)
		}
	}
	return req, nil
}

func (c *PricingCalculator) track(parent context.Context) (context.Context, func()) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.Timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	c.mu.Lock()
	if c.inflight != nil {
		c.inflight()
	}
	c.gen++
	gen := c.gen
	c.inflight = cancel
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		if c.gen == gen {
			c.inflight = nil
		}
		c.mu.Unlock()
		cancel()
	}
}

// Cancel aborts the call in flight, if any.
func (c *PricingCalculator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

func pricingFailureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Pricing service timed out, please try again"
	case errors.Is(err, context.Canceled):
		return "Pricing request was canceled"
	}
	var pe domain.PricingServiceError
	if errors.As(err, &pe) {
		if pe.Msg != "" {
			return pe.Msg
		}
		if pe.Status > 0 {
			return fmt.Sprintf("Pricing service returned %d", pe.Status)
		}
		return "Pricing service unavailable, please try again"
	}
	return err.Error()
}
