package payslip

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1'234.50", "1234.5"},
		{"1’234.50", "1234.5"},
		{"1 234.50", "1234.5"},
		{"-424.00", "-424"},
		{"- 424.00", "-424"},
		{"5.300%", "5.3"},
		{"12'000'000", "12000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := ParseAmount("abc")
	assert.ErrorIs(t, err, ErrUnparsableNumber)
	_, err = ParseAmount("-")
	assert.ErrorIs(t, err, ErrUnparsableNumber)
}

func TestRowAmounts(t *testing.T) {
	tokens, err := rowAmounts(" 8'000.00 5.30% -424.00")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "8'000.00", tokens[0].Text)
	assert.True(t, tokens[1].Percent)
	assert.True(t, decimal.NewFromInt(-424).Equal(tokens[2].Value))
}

func TestRowAmountsSpaceGrouping(t *testing.T) {
	tokens, err := rowAmounts("1 234.50")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "1234.5", tokens[0].Value.String())

	// a space followed by more than three digits separates columns
	tokens, err = rowAmounts("1 8000.00")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "1", tokens[0].Value.String())
	assert.Equal(t, "8000", tokens[1].Value.String())
}

func TestRowAmountsCurrencyAndText(t *testing.T) {
	tokens, err := rowAmounts(": chf 6'800.00")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "6800", tokens[0].Value.String())

	tokens, err = rowAmounts(" deduction 8'000.00")
	require.NoError(t, err)
	assert.Nil(t, tokens)

	tokens, err = rowAmounts(" 8'000.00 see note 2")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestRowAmountsMalformed(t *testing.T) {
	_, err := rowAmounts(" 8,000.00")
	assert.ErrorIs(t, err, ErrUnparsableNumber)

	_, err = rowAmounts(" 8'00.00")
	assert.ErrorIs(t, err, ErrUnparsableNumber)
}
