package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads for new handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var (
		missing    domain.MissingRequiredFieldsError
		incomplete domain.IncompleteBookingError
		blocked    domain.StepBlockedError
		upstream   domain.PricingServiceError
	)
	switch {
	case errors.As(err, &missing):
		respondError(c, http.StatusUnprocessableEntity, "missing_required_fields", err.Error(), gin.H{"fields": missing.Fields})
	case errors.As(err, &incomplete):
		respondError(c, http.StatusUnprocessableEntity, "incomplete_booking", err.Error(), gin.H{"missing": incomplete.Missing})
	case errors.As(err, &blocked):
		respondError(c, http.StatusUnprocessableEntity, "step_blocked", err.Error(), gin.H{"target": blocked.Target, "blocker": blocked.Blocker})
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsStale(err):
		respondError(c, http.StatusConflict, "stale_pricing", "inputs changed while pricing, result discarded", nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.As(err, &upstream):
		respondError(c, http.StatusBadGateway, "pricing_unavailable", err.Error(), gin.H{"status": upstream.Status})
	case domain.IsSubmissionFailed(err):
		respondError(c, http.StatusBadGateway, "submission_failed", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
