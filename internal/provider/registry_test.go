package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a minimal Adapter for registry tests.
type stubAdapter struct {
	name    string
	enabled bool
}

func (s *stubAdapter) Name() string                     { return s.name }
func (s *stubAdapter) Enabled() bool                    { return s.enabled }
func (s *stubAdapter) WebhookSecret() string            { return "secret-" + s.name }
func (s *stubAdapter) SignatureScheme() SignatureScheme { return SchemeHMACSHA512 }
func (s *stubAdapter) SignatureHeader() string          { return "x-signature" }
func (s *stubAdapter) TimestampHeader() string          { return "" }

func (s *stubAdapter) Initiate(_ context.Context, req InitiateRequest) (*InitiateResponse, error) {
	return &InitiateResponse{
		PaymentURL:        "https://" + s.name + ".test/pay",
		ProviderReference: s.name + "-" + req.Reference,
		ExpiresAt:         time.Now().Add(time.Hour),
	}, nil
}

func (s *stubAdapter) ParseWebhook(payload []byte) (*Event, error) {
	return nil, ErrMalformedPayload
}

func TestRegistry_PrimaryIsFirstRegisteredEnabled(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "disabled-gw", enabled: false})
	r.Register(&stubAdapter{name: "gatewayA", enabled: true})
	r.Register(&stubAdapter{name: "gatewayB", enabled: true})

	primary, ok := r.Primary()
	require.True(t, ok)
	assert.Equal(t, "gatewayA", primary.Name())
}

func TestRegistry_NoPrimaryWhenNothingEnabled(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "gatewayA", enabled: false})

	_, ok := r.Primary()
	assert.False(t, ok)
}

func TestRegistry_ByName(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "gatewayA", enabled: true})

	a, ok := r.ByName("gatewayA")
	require.True(t, ok)
	assert.Equal(t, "gatewayA", a.Name())

	_, ok = r.ByName("nope")
	assert.False(t, ok)
}

func TestRegistry_EnabledAdaptersKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "a", enabled: true})
	r.Register(&stubAdapter{name: "b", enabled: false})
	r.Register(&stubAdapter{name: "c", enabled: true})

	enabled := r.EnabledAdapters()
	require.Len(t, enabled, 2)
	assert.Equal(t, "a", enabled[0].Name())
	assert.Equal(t, "c", enabled[1].Name())
}

func TestRegistry_ByPreference(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "gatewayA", enabled: true})
	r.Register(&stubAdapter{name: "gatewayB", enabled: true})
	r.Register(&stubAdapter{name: "gatewayC", enabled: false})

	t.Run("FirstEnabledMatch", func(t *testing.T) {
		a, ok := r.ByPreference([]string{"gatewayC", "gatewayB"})
		require.True(t, ok)
		assert.Equal(t, "gatewayB", a.Name())
	})

	t.Run("FallsBackToPrimary", func(t *testing.T) {
		a, ok := r.ByPreference([]string{"unknown", "gatewayC"})
		require.True(t, ok)
		assert.Equal(t, "gatewayA", a.Name())
	})

	t.Run("EmptyPreferenceGivesPrimary", func(t *testing.T) {
		a, ok := r.ByPreference(nil)
		require.True(t, ok)
		assert.Equal(t, "gatewayA", a.Name())
	})
}

func TestRegistry_Status(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "gatewayA", enabled: true})
	r.Register(&stubAdapter{name: "gatewayB", enabled: false})

	status := r.Status()
	require.Len(t, status, 2)
	assert.Equal(t, AdapterStatus{Enabled: true, Primary: true}, status["gatewayA"])
	assert.Equal(t, AdapterStatus{Enabled: false, Primary: false}, status["gatewayB"])
}

func TestRegistry_ReRegisterReplacesAdapter(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "gatewayA", enabled: false})
	r.Register(&stubAdapter{name: "gatewayA", enabled: true})

	assert.Len(t, r.Status(), 1)

	a, ok := r.ByName("gatewayA")
	require.True(t, ok)
	assert.True(t, a.Enabled())
}
