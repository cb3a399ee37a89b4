package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"faregate/internal/carduid"
	"faregate/internal/repository"
	"faregate/internal/service"
)

// Error codes surfaced to callers. The four outcome classes of a tap
// (bad input, unknown card, payment shortfall, internal fault) map to
// distinct codes and HTTP statuses.
const (
	CodeMalformedIdentifier = "MALFORMED_IDENTIFIER"
	CodeCardNotRegistered   = "CARD_NOT_REGISTERED"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeDuplicateTap        = "DUPLICATE_TAP"
	CodeCardTaken           = "CARD_ALREADY_REGISTERED"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeDetectionTimeout    = "DETECTION_TIMEOUT"
	CodeInternalError       = "INTERNAL_ERROR"
)

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Deficit   string `json:"deficit,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status
// code and error code.
func respondError(c *gin.Context, err error) {
	status, code := mapError(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs, not the response.
		message = "internal server error"
		_ = c.Error(err)
	}

	c.JSON(status, ErrorResponse{ErrorCode: code, Message: message})
}

// mapError maps service/repository errors to an HTTP status and error code.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, carduid.ErrMalformedUID):
		return http.StatusBadRequest, CodeMalformedIdentifier

	case errors.Is(err, service.ErrCardNotRegistered):
		return http.StatusUnauthorized, CodeCardNotRegistered

	case errors.Is(err, service.ErrDuplicateTap):
		return http.StatusConflict, CodeDuplicateTap

	case errors.Is(err, repository.ErrCardTaken):
		return http.StatusConflict, CodeCardTaken

	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound

	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidRequest

	case errors.Is(err, service.ErrReaderTimeout):
		return http.StatusRequestTimeout, CodeDetectionTimeout

	case errors.Is(err, service.ErrReaderNotConfigured):
		return http.StatusServiceUnavailable, CodeInternalError

	// ErrOpenRideConflict is a broken invariant, deliberately an
	// internal fault rather than a client-visible outcome.
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}
