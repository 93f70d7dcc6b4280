// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hxuan190/split-swapper/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorUnauthorized(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    messageOrDefault(msg, "Unauthorized"),
	}
}

func HTTPErrorForbidden(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    messageOrDefault(msg, "Forbidden"),
	}
}

func HTTPErrorResourceConflict(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusConflict,
		Code:       "RESOURCE_CONFLICT",
		Message:    messageOrDefault(msg, "Resource conflict"),
	}
}

func HTTPErrorUnprocessable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE",
		Message:    messageOrDefault(msg, "Request could not be executed"),
	}
}

func HTTPErrorTooManyRequests(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusTooManyRequests,
		Code:       "TOO_MANY_REQUESTS",
		Message:    messageOrDefault(msg, "Too many requests"),
	}
}

// HTTPErrorFromDomain maps engine errors to HTTP errors. The Code field
// carries the domain failure so callers can tell input errors from venue errors.
func HTTPErrorFromDomain(err error) *HttpError {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var e *HttpError
	switch {
	case errors.Is(err, domain.ErrInvalidDistribution):
		e = HTTPErrorBadRequest(err.Error())
		e.Code = "INVALID_DISTRIBUTION"
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidRecipient),
		errors.Is(err, domain.ErrInvalidPayer),
		errors.Is(err, domain.ErrFeeTooHigh):
		e = HTTPErrorBadRequest(err.Error())
	case errors.Is(err, domain.ErrUnsupportedVersion):
		e = HTTPErrorBadRequest(err.Error())
		e.Code = "UNSUPPORTED_VERSION"
	case errors.Is(err, domain.ErrInvalidMigration):
		e = HTTPErrorBadRequest(err.Error())
		e.Code = "INVALID_MIGRATION"
	case errors.Is(err, domain.ErrUnauthorized):
		e = HTTPErrorUnauthorized(err.Error())
	case errors.Is(err, domain.ErrVenueNotFound):
		e = HTTPErrorNotFound(err.Error())
		e.Code = "VENUE_NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		e = HTTPErrorNotFound(err.Error())
	case errors.Is(err, domain.ErrSwapExecutionFailed):
		e = HTTPErrorUnprocessable(err.Error())
		e.Code = "SWAP_EXECUTION_FAILED"
	case errors.Is(err, domain.ErrFeeTransferFailed):
		e = HTTPErrorUnprocessable(err.Error())
		e.Code = "FEE_TRANSFER_FAILED"
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrAccountFrozen):
		e = HTTPErrorUnprocessable(err.Error())
	default:
		e = HTTPErrorInternalError(err.Error())
	}
	return e
}

// Legacy aliases (deprecated, use HTTP* versions)

func HttpErrorBadRequest(msg string) *HttpError {
	return HTTPErrorBadRequest(msg)
}

func HttpErrorNotFound(msg string) *HttpError {
	return HTTPErrorNotFound(msg)
}

func HttpErrorUnauthorized(msg string) *HttpError {
	return HTTPErrorUnauthorized(msg)
}

func HttpErrorConflict(msg string) *HttpError {
	return HTTPErrorResourceConflict(msg)
}
