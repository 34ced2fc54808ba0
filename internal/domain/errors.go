package domain

import "fmt"

// Provider names used in errors, warnings, and logs.
const (
	ProviderIFPA      = "ifpa"
	ProviderMatchplay = "matchplay"
)

// ValidationError rejects a request before any fetch happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UpstreamError marks a named provider fetch as failed. It is contained
// locally: the merger converts it into a nil data block plus a warning,
// never a request failure.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// RateLimitError rejects a request whose client exceeded its budget.
type RateLimitError struct {
	Key string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s", e.Key)
}
