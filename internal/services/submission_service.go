package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/utils"
	"storefront/internal/wizard"

	"go.uber.org/zap"
)

// CartAPI accepts completed bookings.
type CartAPI interface {
	Submit(ctx context.Context, req models.BookingRequest) (models.BookingResult, error)
}

type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SubmissionService turns a complete draft into a cart booking.
type SubmissionService struct {
	Cart      CartAPI
	Timeout   time.Duration
	Logger    *zap.Logger
	RequestID string
}

// Submit posts the store's draft. An incomplete draft never reaches the network;
// on success the store is reset, on failure it is left as it was.
func (s SubmissionService) Submit(ctx context.Context, store *wizard.Store) (SubmitResult, error) {
	log := utils.OrNop(s.Logger)

	if err := store.BeginSubmit(); err != nil {
		return SubmitResult{}, err
	}
	defer store.EndSubmit()

	if !store.IsStepValid(models.StepSummary) {
		return SubmitResult{}, domain.IncompleteBookingError{Missing: store.MissingFields()}
	}
	draft := store.Snapshot()
	req, err := BuildBookingRequest(draft)
	if err != nil {
		return SubmitResult{}, err
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	res, err := s.Cart.Submit(ctx, req)
	if err != nil {
		if !domain.IsSubmissionFailed(err) {
			err = domain.SubmissionFailedError{Msg: submitFailureMessage(err), Err: err}
		}
		utils.LogEvent(log, s.RequestID, "submission", "submit_failed", "cart rejected booking",
			zap.String("product", string(draft.Product)),
			zap.String("route_id", req.RouteID),
			zap.Error(err),
		)
		return SubmitResult{Success: false, Message: err.Error()}, err
	}

	if rerr := store.Reset(); rerr != nil {
		log.Warn("draft reset after submission could not clear storage", zap.Error(rerr))
	}
	utils.LogEvent(log, s.RequestID, "submission", "submit", "booking submitted",
		zap.String("product", string(draft.Product)),
		zap.String("route_id", req.RouteID),
	)
	return SubmitResult{Success: true, Message: res.Message}, nil
}

func submitFailureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Booking service timed out, please try again"
	case errors.Is(err, context.Canceled):
		return "Booking submission was canceled"
	}
	return err.Error()
}

// BuildBookingRequest maps a complete draft onto the cart contract.
func BuildBookingRequest(d models.BookingDraft) (models.BookingRequest, error) {
	if d.Route == nil {
		return models.BookingRequest{}, domain.IncompleteBookingError{Missing: []string{"route"}}
	}
	cfg := d.Configuration
	outbound, err := utils.CombineDateTime(cfg.OutboundDate, cfg.OutboundTime)
	if err != nil {
		return models.BookingRequest{}, domain.ValidationError{Field: "outbound_datetime", Msg: err.Error(), Err: err}
	}
	req := models.BookingRequest{
		Product:             d.Product,
		RouteID:             d.Route.ID,
		VehicleType:         cfg.VehicleType,
		TripType:            cfg.TripType,
		OutboundDateTime:    outbound,
		PassengerCount:      cfg.PassengerCount,
		LuggageCount:        cfg.LuggageCount,
		PickupAddress:       strings.TrimSpace(d.Contact.PickupAddress),
		DropoffAddress:      strings.TrimSpace(d.Contact.DropoffAddress),
		ContactName:         utils.NormalizeSpace(d.Contact.ContactName),
		ContactPhone:        utils.NormalizePhone(d.Contact.ContactPhone),
		SelectedOptions:     append([]models.SelectedOption{}, d.SelectedOptions...),
		SpecialRequirements: strings.TrimSpace(d.Contact.SpecialRequirements),
	}
	if d.IsRoundTrip() {
		ret, err := utils.CombineDateTime(cfg.ReturnDate, cfg.ReturnTime)
		if err != nil {
			return models.BookingRequest{}, domain.ValidationError{Field: "return_datetime", Msg: err.Error(), Err: err}
		}
		req.ReturnDateTime = ret
	}
	return req, nil
}
