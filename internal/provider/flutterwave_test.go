package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlutterwave_DisabledWithoutCredentials(t *testing.T) {
	a := NewFlutterwave("", "", "", time.Hour)
	assert.False(t, a.Enabled())
}

func TestFlutterwave_Initiate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ref-2", body["tx_ref"])
		assert.Equal(t, "2000.00", body["amount"])
		assert.Equal(t, "NGN", body["currency"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.flutterwave.com/v3/hosted/pay/xyz"}}`))
	}))
	defer srv.Close()

	a := NewFlutterwave("FLWSECK_TEST-x", "fw-hash", srv.URL, time.Hour)

	resp, err := a.Initiate(context.Background(), InitiateRequest{
		CandidateID: "cand-1",
		Purpose:     "acceptance_fee",
		Reference:   "ref-2",
		Amount:      200000,
		Currency:    "NGN",
		Contact:     Contact{Email: "c@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/v3/hosted/pay/xyz", resp.PaymentURL)
	// Flutterwave keys webhooks on our tx_ref
	assert.Equal(t, "ref-2", resp.ProviderReference)
}

func TestFlutterwave_ParseWebhook(t *testing.T) {
	a := NewFlutterwave("FLWSECK_TEST-x", "fw-hash", "", time.Hour)

	t.Run("SuccessfulChargeNairaToKobo", func(t *testing.T) {
		payload := []byte(`{
			"event": "charge.completed",
			"data": {
				"id": 408136545,
				"tx_ref": "ref-2",
				"status": "successful",
				"amount": 2000.50,
				"currency": "NGN",
				"created_at": "2025-01-14T09:30:00Z"
			}
		}`)

		ev, err := a.ParseWebhook(payload)
		require.NoError(t, err)
		assert.Equal(t, "ref-2", ev.ProviderReference)
		assert.Equal(t, EventSucceeded, ev.Status)
		assert.Equal(t, int64(200050), ev.Amount)
	})

	t.Run("WholeNairaAmount", func(t *testing.T) {
		payload := []byte(`{"event":"charge.completed","data":{"id":1,"tx_ref":"ref-3","status":"successful","amount":2000,"currency":"NGN"}}`)

		ev, err := a.ParseWebhook(payload)
		require.NoError(t, err)
		assert.Equal(t, int64(200000), ev.Amount)
	})

	t.Run("FailedCharge", func(t *testing.T) {
		payload := []byte(`{"event":"charge.completed","data":{"id":2,"tx_ref":"ref-4","status":"failed","amount":500,"currency":"NGN"}}`)

		ev, err := a.ParseWebhook(payload)
		require.NoError(t, err)
		assert.Equal(t, EventFailed, ev.Status)
	})

	t.Run("MissingTxRef", func(t *testing.T) {
		_, err := a.ParseWebhook([]byte(`{"event":"charge.completed","data":{"status":"successful"}}`))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestNairaKoboConversion(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"2000", 200000},
		{"2000.00", 200000},
		{"2000.5", 200050},
		{"2000.50", 200050},
		{"0.99", 99},
		{"0", 0},
		{"-0.50", -50},
		{"-2000.50", -200050},
	}
	for _, c := range cases {
		got, err := nairaToKobo(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	// Finer than kobo precision must be rejected, never truncated.
	for _, in := range []string{"20.005", "2000.001", "two thousand", "1.-5"} {
		_, err := nairaToKobo(in)
		assert.ErrorIs(t, err, ErrMalformedPayload, in)
	}

	assert.Equal(t, "2000.00", koboToNaira(200000))
	assert.Equal(t, "2000.05", koboToNaira(200005))
	assert.Equal(t, "0.99", koboToNaira(99))
}
