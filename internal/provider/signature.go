package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"time"
)

// Verifier authenticates inbound webhook deliveries before any payload is
// trusted. The digest is computed over the exact raw bytes received; callers
// must never re-serialize the body first.
type Verifier struct {
	maxSkew time.Duration
	now     func() time.Time
}

func NewVerifier(maxSkew time.Duration) *Verifier {
	return &Verifier{maxSkew: maxSkew, now: time.Now}
}

// Verify checks the signature and, when the gateway supplies one, the
// timestamp. An empty timestamp is accepted here; gateways that sign a
// timestamp have its presence enforced by the caller.
func (v *Verifier) Verify(payload []byte, signature, timestamp, secret string, scheme SignatureScheme) error {
	if timestamp != "" {
		if err := v.CheckTimestamp(timestamp); err != nil {
			return err
		}
	}
	return VerifyHMAC(payload, signature, secret, scheme)
}

// CheckTimestamp accepts RFC3339 or unix seconds and rejects anything
// outside the skew window, in either direction, to block replays.
func (v *Verifier) CheckTimestamp(timestamp string) error {
	var ts time.Time

	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		ts = t
	} else if secs, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		ts = time.Unix(secs, 0)
	} else {
		return ErrTimestampStale
	}

	diff := v.now().Sub(ts)
	if diff < 0 {
		diff = -diff
	}
	if diff > v.maxSkew {
		return ErrTimestampStale
	}
	return nil
}

// VerifyHMAC compares the supplied hex signature against a keyed digest of
// the payload in constant time. An empty secret always fails: a deployment
// without a webhook secret must never accept callbacks.
func VerifyHMAC(payload []byte, signature, secret string, scheme SignatureScheme) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}

	var newHash func() hash.Hash
	switch scheme {
	case SchemeHMACSHA256:
		newHash = sha256.New
	default:
		newHash = sha512.New
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// SignPayload computes the hex HMAC a gateway would send for payload. Used
// by the mock adapter and tests.
func SignPayload(payload []byte, secret string, scheme SignatureScheme) string {
	var newHash func() hash.Hash
	switch scheme {
	case SchemeHMACSHA256:
		newHash = sha256.New
	default:
		newHash = sha512.New
	}
	mac := hmac.New(newHash, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
