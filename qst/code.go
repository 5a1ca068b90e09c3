package qst

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupportedCode is returned for tariff codes outside A, B and C.
var ErrUnsupportedCode = errors.New("unsupported tariff code")

var tariffGroups = map[byte]string{
	'A': "Single",
	'B': "Married Single-Earner",
	'C': "Married Dual-Earner",
}

var churchTax = map[byte]string{
	'N': "Church Tax: No",
	'Y': "Church Tax: Yes",
}

// BuildCode assembles a tariff code such as "B2N" from the employee's
// circumstances. Children are clamped to 0..9.
func BuildCode(married, singleEarner bool, children int, church bool) string {
	group := byte('A')
	if married {
		group = 'C'
		if singleEarner {
			group = 'B'
		}
	}
	children = min(max(children, 0), 9)
	flag := byte('N')
	if church {
		flag = 'Y'
	}
	return string([]byte{group, byte('0' + children), flag})
}

// Explain describes a tariff code in words.
func Explain(code string) (string, error) {
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCode, code)
	}
	group, ok := tariffGroups[code[0]]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCode, code)
	}
	children, err := strconv.Atoi(code[1:2])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCode, code)
	}
	church, ok := churchTax[code[2]]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCode, code)
	}
	return fmt.Sprintf("%s, Children: %d, %s", group, children, church), nil
}

// IsSupported reports whether code can be explained and calculated.
func IsSupported(code string) bool {
	_, err := Explain(code)
	return err == nil
}
