package errors

import "errors"

// Common errors used throughout the application
var (
	// Configuration errors
	ErrMissingAPIToken  = errors.New("logseq API token not configured (set LOGSEQ_API_TOKEN or api_token)")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrInvalidBoolean   = errors.New("invalid boolean value (use true/false)")

	// Validation errors
	ErrEmptyQuery          = errors.New("query cannot be empty")
	ErrMissingPropertyName = errors.New("property name cannot be empty")
	ErrNoUpdates           = errors.New("either 'content' or 'properties' must be provided")
	ErrInvalidResultType   = errors.New("invalid result_type (use pages_only, blocks_only, or all)")

	// Remote entity errors
	ErrPageNotFound  = errors.New("page does not exist")
	ErrPageExists    = errors.New("page already exists")
	ErrBlockNotFound = errors.New("block does not exist")
)
