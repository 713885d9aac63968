package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown         = errors.New("unknown error occurred")
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrNotFound        = errors.New("resource not found")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")
	ErrValidation      = errors.New("payload validation failed")

	// Exchange Specific Errors
	ErrUnsupportedExchange  = errors.New("unsupported exchange")
	ErrConnectionFailed     = errors.New("failed to connect to the exchange")
	ErrExchangeAPI          = errors.New("exchange API call failed")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInvalidAPIKeys       = errors.New("invalid API keys or permissions")
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrOrderNotFound        = errors.New("order not found on the exchange")
	ErrOrderPlacementFailed = errors.New("failed to place order")
	ErrOrderCancelFailed    = errors.New("failed to cancel order")

	// Engine Specific Errors
	ErrUnsupportedStrategy = errors.New("unsupported strategy type")
	ErrUnknownSignalType   = errors.New("unknown signal type")
	ErrBotNotRunning       = errors.New("bot not running")
	ErrBotNotFound         = errors.New("bot not found")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
)
