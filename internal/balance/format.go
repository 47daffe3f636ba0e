package balance

import (
	"math"
	"strconv"
	"strings"
)

// FormatInt renders an integer with a dot as thousands separator: 16901 => "16.901".
func FormatInt(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := groupThousands(strconv.Itoa(n))
	if neg {
		return "-" + s
	}
	return s
}

// FormatPercent renders a fraction as a one-decimal percentage with a comma
// decimal separator: 0.435 => "43,5%".
func FormatPercent(frac float64) string {
	if math.IsNaN(frac) {
		return ""
	}
	s := strconv.FormatFloat(frac*100, 'f', 1, 64)
	return strings.Replace(s, ".", ",", 1) + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
