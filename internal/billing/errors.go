package billing

import "errors"

// Fetch failures are deliberately coarse: any problem at any page boundary
// abandons the whole fetch so a partial sum can never masquerade as the
// live total. Callers only ever branch on these sentinels with errors.Is.
var (
	// ErrUpstreamUnavailable covers network failures, timeouts, non-2xx
	// responses and undecodable payloads from the billing provider.
	ErrUpstreamUnavailable = errors.New("billing provider unavailable")

	// ErrTooManyPages signals the pagination hard cap was hit; the
	// provider is misbehaving and the sum so far is discarded.
	ErrTooManyPages = errors.New("billing provider page cap exceeded")

	// ErrMissingKey is returned when a fetch is attempted without a key.
	// Callers are expected to skip the live tier instead of hitting this.
	ErrMissingKey = errors.New("missing billing API key")
)
