package present

import (
	"math"
	"strconv"
)

// Decimals is the number of decimal places shown for means and scores.
const Decimals = 4

// Round4 rounds half away from zero to four decimal places.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// FormatFloat renders v rounded to four decimals without trailing zeros,
// so 0.15 shows as "0.15" and 0.123456 as "0.1235".
func FormatFloat(v float64) string {
	r := Round4(v)
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatInt renders an integer with thousands separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	pre := len(s) % 3
	if pre > 0 {
		out = append(out, s[:pre]...)
	}
	for i := pre; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
