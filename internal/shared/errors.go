package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig     = fmt.Errorf("configuration not found")
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
	ErrMissingAPIKey     = fmt.Errorf("missing catalog api key")
	ErrAlreadyConfigured = fmt.Errorf("default store already configured")

	// Storage errors
	ErrSlotNotFound  = fmt.Errorf("slot not found")
	ErrQuotaExceeded = fmt.Errorf("slot quota exceeded")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTitleNotFound      = fmt.Errorf("title not found")

	// Watchlist errors
	ErrNotTracked     = fmt.Errorf("entry not in watchlist")
	ErrAlreadyTracked = fmt.Errorf("entry already in watchlist")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
