// Package core holds the pure report domain: order rows, time windows,
// classification and aggregation. Nothing in here does I/O.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a monetary amount in integer cents. Sums are accumulated in
// cents and converted to dollars exactly once at presentation time, so
// no rounding error compounds across rows.
type Money struct {
	Cents int64
}

// Dollars returns the amount as a float64 for output formatting.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) String() string {
	neg := m.Cents < 0
	c := m.Cents
	if neg {
		c = -c
	}
	s := fmt.Sprintf("$%d.%02d", c/100, c%100)
	if neg {
		return "-" + s
	}
	return s
}

// ParseAmountToCents parses a monetary cell from a vendor export into
// cents. It tolerates a leading dollar sign, thousands separators and a
// decimal comma. The second return value is false when the cell is blank
// or not numeric; callers decide whether that means zero or skip.
//
// Fractions beyond two digits are rounded half-up on the third digit.
func ParseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	// "1,234.56" vs the European "1234,56": a comma followed by exactly
	// two digits at the end is a decimal separator, anything else is a
	// thousands separator.
	if i := strings.LastIndex(s, ","); i != -1 && len(s)-i-1 == 2 && !strings.Contains(s, ".") {
		s = s[:i] + "." + s[i+1:]
	}
	s = strings.ReplaceAll(s, ",", "")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, false
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, false
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, true
}
