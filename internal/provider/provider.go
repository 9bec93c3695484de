package provider

import (
	"context"
	"time"
)

// EventStatus is the gateway-agnostic payment status vocabulary. Every
// adapter maps its own wire statuses onto these three.
type EventStatus string

const (
	EventSucceeded EventStatus = "succeeded"
	EventFailed    EventStatus = "failed"
	EventPending   EventStatus = "pending"
)

// SignatureScheme names the keyed digest a gateway signs webhooks with.
type SignatureScheme string

const (
	SchemeHMACSHA512 SignatureScheme = "hmac-sha512"
	SchemeHMACSHA256 SignatureScheme = "hmac-sha256"
)

type Contact struct {
	FullName string
	Email    string
	Phone    string
}

type InitiateRequest struct {
	CandidateID string
	Purpose     string
	Reference   string
	Amount      int64 // minor units (kobo)
	Currency    string
	Contact     Contact
}

type InitiateResponse struct {
	PaymentURL        string
	ProviderReference string
	ExpiresAt         time.Time
}

// Event is the canonical form of a payment-status callback after parsing.
type Event struct {
	EventID           string
	EventType         string
	ProviderReference string
	Status            EventStatus
	Amount            int64 // minor units (kobo)
	Currency          string
	OccurredAt        time.Time
}

// Adapter is implemented once per gateway. Construction never fails on
// missing credentials; an adapter without credentials reports Enabled false
// and the registry skips it for initiation.
type Adapter interface {
	Name() string
	Enabled() bool

	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	ParseWebhook(payload []byte) (*Event, error)

	WebhookSecret() string
	SignatureScheme() SignatureScheme
	// SignatureHeader and TimestampHeader name the HTTP headers the gateway
	// delivers its signature and (if any) timestamp in. TimestampHeader is
	// empty for gateways that do not sign a timestamp.
	SignatureHeader() string
	TimestampHeader() string
}

// StatusQuerier is implemented by adapters whose gateway supports a
// provider-side transaction lookup, used for manual reconciliation when a
// webhook was missed.
type StatusQuerier interface {
	QueryStatus(ctx context.Context, providerReference string) (*Event, error)
}
