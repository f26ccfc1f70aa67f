package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrMissingAuthFile    = fmt.Errorf("destination auth file not found")
	ErrRunInProgress      = fmt.Errorf("another transfer is already running for this account")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Run errors that stop a transfer
	ErrUnrecognizedReference = fmt.Errorf("unrecognized playlist reference")
	ErrSourceFetchFailed     = fmt.Errorf("failed to fetch source playlist")
	ErrEmptyPlaylist         = fmt.Errorf("source playlist has no tracks")
	ErrPlaylistCreateFailed  = fmt.Errorf("failed to create destination playlist")
	ErrNoTracksAdded         = fmt.Errorf("no tracks were added")

	// Per-track errors that are recorded and skipped
	ErrNoMatchFound  = fmt.Errorf("no match found")
	ErrSearchFailed  = fmt.Errorf("search failed")
	ErrAddItemFailed = fmt.Errorf("failed to add playlist item")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
