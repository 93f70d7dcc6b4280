package domain

import "errors"

var (
	ErrInvalidDistribution = errors.New("invalid distribution")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrVenueNotFound       = errors.New("venue not found")
	ErrSwapExecutionFailed = errors.New("swap execution failed")
	ErrFeeTransferFailed   = errors.New("fee transfer failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrFeeTooHigh          = errors.New("fee exceeds ceiling")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrInvalidPayer        = errors.New("invalid payer")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountFrozen       = errors.New("account frozen for asset")
	ErrResidualBalance     = errors.New("engine retained residual balance")
	ErrUnsupportedVersion  = errors.New("operation not supported by active engine version")
	ErrInvalidMigration    = errors.New("invalid migration")
	ErrNotFound            = errors.New("not found")
)
