package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionPending   = fmt.Errorf("session is still resolving")
	ErrSessionReplaced  = fmt.Errorf("session changed while request was pending")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrArtistNotFound     = fmt.Errorf("artist not found")

	// Dashboard errors
	ErrEmptyURL         = fmt.Errorf("artist URL is required")
	ErrAddInFlight      = fmt.Errorf("an artist is already being added")
	ErrRefreshInFlight  = fmt.Errorf("artist is already refreshing")
	ErrProviderInFlight = fmt.Errorf("provider change already in progress")
	ErrDashboardClosed  = fmt.Errorf("dashboard closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
