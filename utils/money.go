package utils

import "github.com/shopspring/decimal"

var twenty = decimal.NewFromInt(20)

// Round05 rounds to the nearest 0.05 CHF, halves away from zero.
func Round05(d decimal.Decimal) decimal.Decimal {
	return d.Mul(twenty).Round(0).Div(twenty).Round(2)
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// FormatCHF renders an amount with two decimals and apostrophe thousands
// separators, the way Swiss payslips print it.
func FormatCHF(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b []byte
	for i := range len(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b = append(b, '\'')
		}
		b = append(b, intPart[i])
	}
	out := string(b) + frac
	if neg {
		out = "-" + out
	}
	return out
}
