package provider

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifyHMAC(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"refA-123"}}`)
	secret := "whsec_test"

	t.Run("ValidSHA512", func(t *testing.T) {
		sig := SignPayload(payload, secret, SchemeHMACSHA512)
		assert.NoError(t, VerifyHMAC(payload, sig, secret, SchemeHMACSHA512))
	})

	t.Run("ValidSHA256", func(t *testing.T) {
		sig := SignPayload(payload, secret, SchemeHMACSHA256)
		assert.NoError(t, VerifyHMAC(payload, sig, secret, SchemeHMACSHA256))
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		sig := SignPayload(payload, secret, SchemeHMACSHA512)
		tampered := []byte(`{"event":"charge.success","data":{"reference":"refB-999"}}`)

		err := VerifyHMAC(tampered, sig, secret, SchemeHMACSHA512)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		sig := SignPayload(payload, "other-secret", SchemeHMACSHA512)

		err := VerifyHMAC(payload, sig, secret, SchemeHMACSHA512)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("EmptySecretAlwaysFails", func(t *testing.T) {
		sig := SignPayload(payload, "", SchemeHMACSHA512)

		err := VerifyHMAC(payload, sig, "", SchemeHMACSHA512)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("EmptySignature", func(t *testing.T) {
		err := VerifyHMAC(payload, "", secret, SchemeHMACSHA512)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestVerifier_CheckTimestamp(t *testing.T) {
	now := time.Date(2025, 1, 14, 9, 30, 0, 0, time.UTC)
	v := NewVerifier(5 * time.Minute)
	v.now = func() time.Time { return now }

	t.Run("FreshRFC3339", func(t *testing.T) {
		ts := now.Add(-time.Minute).Format(time.RFC3339)
		assert.NoError(t, v.CheckTimestamp(ts))
	})

	t.Run("FreshUnixSeconds", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Add(-2*time.Minute).Unix())
		assert.NoError(t, v.CheckTimestamp(ts))
	})

	t.Run("StaleOld", func(t *testing.T) {
		ts := now.Add(-10 * time.Minute).Format(time.RFC3339)
		assert.ErrorIs(t, v.CheckTimestamp(ts), ErrTimestampStale)
	})

	t.Run("StaleFuture", func(t *testing.T) {
		ts := now.Add(10 * time.Minute).Format(time.RFC3339)
		assert.ErrorIs(t, v.CheckTimestamp(ts), ErrTimestampStale)
	})

	t.Run("Unparseable", func(t *testing.T) {
		assert.ErrorIs(t, v.CheckTimestamp("yesterday"), ErrTimestampStale)
	})
}

func TestVerifier_Verify(t *testing.T) {
	now := time.Date(2025, 1, 14, 9, 30, 0, 0, time.UTC)
	v := NewVerifier(5 * time.Minute)
	v.now = func() time.Time { return now }

	payload := []byte(`{"reference":"refA-123"}`)
	secret := "whsec_test"
	sig := SignPayload(payload, secret, SchemeHMACSHA512)

	t.Run("NoTimestampProvider", func(t *testing.T) {
		assert.NoError(t, v.Verify(payload, sig, "", secret, SchemeHMACSHA512))
	})

	t.Run("WithFreshTimestamp", func(t *testing.T) {
		ts := now.Format(time.RFC3339)
		assert.NoError(t, v.Verify(payload, sig, ts, secret, SchemeHMACSHA512))
	})

	t.Run("StaleTimestampRejectedBeforeSignature", func(t *testing.T) {
		ts := now.Add(-time.Hour).Format(time.RFC3339)
		err := v.Verify(payload, sig, ts, secret, SchemeHMACSHA512)
		assert.ErrorIs(t, err, ErrTimestampStale)
	})
}
