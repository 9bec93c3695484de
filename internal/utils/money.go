package utils

import "fmt"

// FormatKobo renders an amount held in minor units (kobo) as a naira string,
// e.g. 200000 -> "NGN 2,000.00". Amounts are never floats anywhere in the
// payment path; formatting happens only at presentation time.
func FormatKobo(amount int64) string {
	naira := amount / 100
	kobo := amount % 100
	if kobo < 0 {
		kobo = -kobo
	}
	return fmt.Sprintf("NGN %s.%02d", groupThousands(naira), kobo)
}

func groupThousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}

	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}

	if neg {
		return "-" + s
	}
	return s
}
