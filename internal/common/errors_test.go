package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hxuan190/split-swapper/internal/domain"
)

func TestHTTPErrorFromDomain(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidDistribution, http.StatusBadRequest, "INVALID_DISTRIBUTION"},
		{fmt.Errorf("collect payment: %w", domain.ErrInsufficientFunds), http.StatusUnprocessableEntity, "UNPROCESSABLE"},
		{fmt.Errorf("leg 1: %w", domain.ErrVenueNotFound), http.StatusNotFound, "VENUE_NOT_FOUND"},
		{fmt.Errorf("%w: slippage", domain.ErrSwapExecutionFailed), http.StatusUnprocessableEntity, "SWAP_EXECUTION_FAILED"},
		{domain.ErrFeeTransferFailed, http.StatusUnprocessableEntity, "FEE_TRANSFER_FAILED"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrUnsupportedVersion, http.StatusBadRequest, "UNSUPPORTED_VERSION"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{HTTPErrorTooManyRequests(""), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		got := HTTPErrorFromDomain(tt.err)
		assert.Equal(t, tt.status, got.StatusCode, tt.err.Error())
		assert.Equal(t, tt.code, got.Code, tt.err.Error())
	}
}
