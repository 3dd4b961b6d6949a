package dispatch

import "fmt"

// ValidationError rejects a request before any network call.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// AuthenticationError means no user could be resolved for the request.
type AuthenticationError struct{ Msg string }

func (e *AuthenticationError) Error() string {
	if e.Msg == "" {
		return "authentication required"
	}
	return e.Msg
}

// QuotaExceededError carries today's usage for display.
type QuotaExceededError struct {
	Reason              string
	GenerationCount     int
	CharactersGenerated int
}

func (e *QuotaExceededError) Error() string { return e.Reason }

// ProviderError wraps a failed or malformed synthesis call.
type ProviderError struct{ Err error }

func (e *ProviderError) Error() string { return fmt.Sprintf("synthesis provider: %v", e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }
