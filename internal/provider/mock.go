package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const mockName = "mock"

// mockAdapter stands in for a live gateway in environments without
// credentials. It is registered only when no real adapter is enabled and
// never in production.
type mockAdapter struct {
	webhookSecret string
	expiry        time.Duration
}

func NewMock(webhookSecret string, expiry time.Duration) Adapter {
	if webhookSecret == "" {
		webhookSecret = "mock-webhook-secret"
	}
	return &mockAdapter{webhookSecret: webhookSecret, expiry: expiry}
}

func (m *mockAdapter) Name() string                     { return mockName }
func (m *mockAdapter) Enabled() bool                    { return true }
func (m *mockAdapter) WebhookSecret() string            { return m.webhookSecret }
func (m *mockAdapter) SignatureScheme() SignatureScheme { return SchemeHMACSHA512 }
func (m *mockAdapter) SignatureHeader() string          { return "x-mock-signature" }
func (m *mockAdapter) TimestampHeader() string          { return "x-mock-timestamp" }

func (m *mockAdapter) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ref := "mock-" + uuid.NewString()
	return &InitiateResponse{
		PaymentURL:        fmt.Sprintf("https://pay.example.test/checkout/%s", ref),
		ProviderReference: ref,
		ExpiresAt:         time.Now().Add(m.expiry),
	}, nil
}

// mock webhooks carry the canonical event shape directly
type mockWebhook struct {
	EventID    string    `json:"event_id"`
	Reference  string    `json:"reference"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (m *mockAdapter) ParseWebhook(payload []byte) (*Event, error) {
	var wh mockWebhook
	if err := json.Unmarshal(payload, &wh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if wh.Reference == "" {
		return nil, ErrMalformedPayload
	}

	status := EventStatus(wh.Status)
	switch status {
	case EventSucceeded, EventFailed, EventPending:
	default:
		return nil, fmt.Errorf("%w: status %q", ErrMalformedPayload, wh.Status)
	}

	eventID := wh.EventID
	if eventID == "" {
		eventID = mockName + "-" + wh.Reference + "-" + wh.Status
	}

	return &Event{
		EventID:           eventID,
		EventType:         "mock." + wh.Status,
		ProviderReference: wh.Reference,
		Status:            status,
		Amount:            wh.Amount,
		Currency:          wh.Currency,
		OccurredAt:        wh.OccurredAt,
	}, nil
}
