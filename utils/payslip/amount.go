package payslip

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const rightQuote = "’"

type amountToken struct {
	Text    string
	Value   decimal.Decimal
	Percent bool
}

var separatorStripper = strings.NewReplacer("'", "", rightQuote, "", " ", "", "%", "")

// ParseAmount converts a Swiss formatted number ("1'234.50", "1 234.50",
// "-424.00", "5.300%") to a decimal. Sign is preserved.
func ParseAmount(token string) (decimal.Decimal, error) {
	clean := separatorStripper.Replace(strings.TrimSpace(token))
	if clean == "" || clean == "-" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsableNumber, token)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsableNumber, token)
	}
	return d, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func digitsAt(s string, i, n int) bool {
	if i+n > len(s) {
		return false
	}
	for k := i; k < i+n; k++ {
		if !isDigit(s[k]) {
			return false
		}
	}
	return true
}

// looksNumeric reports whether a number starts at s[i].
func looksNumeric(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	if isDigit(s[i]) {
		return true
	}
	if s[i] != '-' {
		return false
	}
	i++
	if i < len(s) && s[i] == ' ' {
		i++
	}
	return i < len(s) && isDigit(s[i])
}

// scanAmount reads one number starting at s[i]. The number must end at the
// end of s or at a space. A space only separates thousands when exactly three
// digits follow it, so adjacent columns ("1 8000.00") stay apart.
func scanAmount(s string, i int) (string, int, bool) {
	j := i
	if s[j] == '-' {
		j++
		if j < len(s) && s[j] == ' ' {
			j++
		}
	}
	start := j
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	lead := j - start
	if lead == 0 {
		return "", i, false
	}
	if lead <= 3 {
		for j < len(s) {
			sep := 0
			switch {
			case s[j] == '\'' || s[j] == ' ':
				sep = 1
			case strings.HasPrefix(s[j:], rightQuote):
				sep = len(rightQuote)
			}
			if sep == 0 {
				break
			}
			group := j + sep
			if !digitsAt(s, group, 3) || (group+3 < len(s) && isDigit(s[group+3])) {
				if s[j] == ' ' {
					break
				}
				// apostrophe not followed by a three digit group
				return "", i, false
			}
			j = group + 3
		}
	}
	if j+1 < len(s) && s[j] == '.' && isDigit(s[j+1]) {
		j++
		for j < len(s) && isDigit(s[j]) {
			j++
		}
	}
	if j < len(s) && s[j] == '%' {
		j++
	}
	if j < len(s) && s[j] != ' ' {
		return "", i, false
	}
	return s[i:j], j, true
}

// rowAmounts reads the numbers that follow a label on the same row. The first
// non-blank item must be a number, otherwise the label is not a value label
// and nil is returned. Currency words are skipped; scanning stops at the
// first other word.
func rowAmounts(rest string) ([]amountToken, error) {
	rest = strings.TrimLeft(rest, " :")
	var tokens []amountToken
	i := 0
	for i < len(rest) {
		for i < len(rest) && rest[i] == ' ' {
			i++
		}
		if i >= len(rest) {
			break
		}
		if strings.HasPrefix(rest[i:], "chf") && (i+3 == len(rest) || rest[i+3] == ' ') {
			i += 3
			continue
		}
		if !looksNumeric(rest, i) {
			break
		}
		text, end, ok := scanAmount(rest, i)
		if !ok {
			if len(tokens) == 0 {
				word := rest[i:]
				if k := strings.IndexByte(word, ' '); k >= 0 {
					word = word[:k]
				}
				return nil, fmt.Errorf("%w: %q", ErrUnparsableNumber, word)
			}
			break
		}
		value, err := ParseAmount(text)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, amountToken{
			Text:    text,
			Value:   value,
			Percent: strings.HasSuffix(text, "%"),
		})
		i = end
	}
	return tokens, nil
}
