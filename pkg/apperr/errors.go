package apperr

import (
	"errors"
	"fmt"
)

// Failure classes shared by providers, the resolution pipeline and the HTTP layer.
var (
	// ErrProviderUnconfigured means an API key or endpoint is absent. Never fatal.
	ErrProviderUnconfigured = errors.New("provider not configured")

	// ErrProviderUnavailable covers network errors, timeouts and non-2xx replies.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedResponse means the provider answered with text we could not parse.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNoResultFound is the only outward "could not resolve" condition.
	ErrNoResultFound = errors.New("no result found")

	ErrSessionNotFound = errors.New("session not found")
)

// Unavailable wraps a transport failure for the named provider.
func Unavailable(provider string, err error) error {
	return fmt.Errorf("%s: %w: %v", provider, ErrProviderUnavailable, err)
}

// Unconfigured reports which provider is missing its configuration.
func Unconfigured(provider string) error {
	return fmt.Errorf("%s: %w", provider, ErrProviderUnconfigured)
}

// Malformed wraps a parse failure for the named provider.
func Malformed(provider string, err error) error {
	return fmt.Errorf("%s: %w: %v", provider, ErrMalformedResponse, err)
}

// Kind returns a short label for logs and HTTP envelopes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	// outward conditions first: they wrap the provider failure that caused them
	case errors.Is(err, ErrNoResultFound):
		return "no_result_found"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrProviderUnconfigured):
		return "provider_unconfigured"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "internal"
	}
}
