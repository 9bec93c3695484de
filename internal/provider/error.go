package provider

import "errors"

var (
	// -- Initiation --
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrInvalidAmount       = errors.New("amount rejected by provider")
	ErrNoProviderAvailable = errors.New("no payment provider available")

	// -- Webhook verification --
	ErrUnknownProvider  = errors.New("unknown payment provider")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrTimestampStale   = errors.New("webhook timestamp outside freshness window")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)
