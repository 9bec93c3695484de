package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateReceiptSerial produces a human-presentable receipt serial, e.g.
// RCP-20250114-093012-482-0917. Uniqueness is enforced at the storage layer;
// the random suffix keeps collisions out of the same millisecond.
func GenerateReceiptSerial() string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"RCP-%s-%03d-%04d",
		datePart,
		millis,
		n.Int64(),
	)
}
