package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStaleResponse marks a pricing result computed from inputs the draft no longer has.
// It is internal bookkeeping and never shown to the shopper.
var ErrStaleResponse = errors.New("stale pricing response discarded")

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// MissingRequiredFieldsError is raised locally before any remote pricing call.
type MissingRequiredFieldsError struct {
	Fields []string
}

func (e MissingRequiredFieldsError) Error() string {
	if len(e.Fields) == 0 {
		return "missing required fields"
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// StepBlockedError means forward navigation is gated by an unmet step.
type StepBlockedError struct {
	Target  string
	Blocker string
}

func (e StepBlockedError) Error() string {
	if e.Blocker == "" || e.Blocker == e.Target {
		return fmt.Sprintf("step %s is not complete", e.Target)
	}
	return fmt.Sprintf("step %s requires %s to be complete", e.Target, e.Blocker)
}

// IncompleteBookingError blocks submission of a draft whose summary step is invalid.
type IncompleteBookingError struct {
	Missing []string
}

func (e IncompleteBookingError) Error() string {
	if len(e.Missing) == 0 {
		return "booking is incomplete"
	}
	return "booking is incomplete: " + strings.Join(e.Missing, ", ")
}

// PricingServiceError is a remote pricing failure (transport, non-2xx, malformed body).
type PricingServiceError struct {
	Status int
	Msg    string
	Err    error
}

func (e PricingServiceError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return "pricing service unavailable: " + e.Err.Error()
	}
	return "pricing service error"
}

func (e PricingServiceError) Unwrap() error { return e.Err }

// SubmissionFailedError carries the cart service message verbatim.
type SubmissionFailedError struct {
	Msg string
	Err error
}

func (e SubmissionFailedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "booking submission failed"
}

func (e SubmissionFailedError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsMissingFields(err error) bool {
	var target MissingRequiredFieldsError
	return errors.As(err, &target)
}

func IsStepBlocked(err error) bool {
	var target StepBlockedError
	return errors.As(err, &target)
}

func IsIncompleteBooking(err error) bool {
	var target IncompleteBookingError
	return errors.As(err, &target)
}

func IsPricingService(err error) bool {
	var target PricingServiceError
	return errors.As(err, &target)
}

func IsSubmissionFailed(err error) bool {
	var target SubmissionFailedError
	return errors.As(err, &target)
}

func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}
