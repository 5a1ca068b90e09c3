package payslip

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/payslip-verifier/dto"
)

const regularSlip = `
	Example AG
	Payslip
	Pay period 11.2023
	Payroll type Basis Rate Total
	Monthly wage 8'000.00
	Gross salary 8'000.00
	OASI contribution 8'000.00 5.30% -424.00
	UI contribution 8'000.00 1.10% -88.00
	SUVA contribution 8'000.00 0.50% -40.00
	PF/LOB contrib. fixed men -500.00
	Withholding tax deduction 8'000.00 10.00% -800.00
	January 2022 / 30 SI-Days / ZH / A0N 8'000.00 10.00% -800.00
	Net salary 6'148.00
`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseRegular(t *testing.T) {
	record, err := Parse([]string{regularSlip}, dto.DocumentRegular)
	require.NoError(t, err)

	assert.Equal(t, dto.DocumentRegular, record.DocumentKind)
	assert.Equal(t, dto.Period{Year: 2023, Month: time.November}, record.Period)
	assert.True(t, dec("8000").Equal(record.GrossSalary))
	assert.True(t, dec("500").Equal(record.PensionContribution))
	assert.True(t, dec("6148").Equal(record.NetPay))
	require.NotNil(t, record.WithholdingTax)
	assert.True(t, dec("800").Equal(*record.WithholdingTax))
	require.NotNil(t, record.BaseSalary)
	assert.True(t, dec("8000").Equal(*record.BaseSalary))
	assert.Nil(t, record.StockIncome)

	assert.True(t, dec("424").Equal(record.SocialInsurance(dto.DeductionOASI)))
	assert.True(t, dec("88").Equal(record.SocialInsurance(dto.DeductionUI)))
	assert.True(t, dec("40").Equal(record.SocialInsurance(dto.DeductionAccident)))
	assert.False(t, record.HasSocialInsurance(dto.DeductionSickness))

	require.NotNil(t, record.WithholdingTariff)
	assert.Equal(t, dto.WithholdingTariff{SIDays: 30, Canton: "ZH", Code: "A0N"}, *record.WithholdingTariff)
}

func TestParseGermanLabels(t *testing.T) {
	slip := `
		Lohnabrechnung
		Lohnperiode Dezember 2023
		Monatslohn 8'000.00
		Bruttolohn 8'000.00
		AHV/IV/EO-Beitrag 8'000.00 5.30% -424.00
		ALV-Beitrag 8'000.00 1.10% -88.00
		BVG-Beitrag -500.00
		Nettolohn CHF 6'988.00
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)

	assert.Equal(t, "2023-12", record.Period.String())
	assert.True(t, dec("6988").Equal(record.NetPay))
	assert.True(t, dec("88").Equal(record.SocialInsurance(dto.DeductionUI)))
	assert.Nil(t, record.WithholdingTax)
}

func TestParseIgnoresCaseAndDiacritics(t *testing.T) {
	slip := `
		PERIODE DE PAIE 03/2024
		SALAIRE BRUT 6 500.00
		COTISATION LPP -350.00
		IMPOT A LA SOURCE -700.00
		SALAIRE NET 5 450.00
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)

	assert.Equal(t, dto.Period{Year: 2024, Month: time.March}, record.Period)
	assert.True(t, dec("6500").Equal(record.GrossSalary))
	require.NotNil(t, record.WithholdingTax)
	assert.True(t, dec("700").Equal(*record.WithholdingTax))
}

func TestParseRepeatedHeaderIsOneMatch(t *testing.T) {
	page2 := `
		Pay period 11.2023
		Net salary 6'148.00
	`
	record, err := Parse([]string{regularSlip, page2}, dto.DocumentRegular)
	require.NoError(t, err)
	assert.True(t, dec("6148").Equal(record.NetPay))
}

func TestParseAmbiguousNetPay(t *testing.T) {
	page2 := `Net salary 6'100.00`
	_, err := Parse([]string{regularSlip, page2}, dto.DocumentRegular)
	require.Error(t, err)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, FieldNetPay, extractionErr.Field)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
	assert.ElementsMatch(t, []string{"6'148.00", "6'100.00"}, extractionErr.Candidates)
}

func TestParseMissingRequiredField(t *testing.T) {
	slip := `
		Pay period 11.2023
		Gross salary 8'000.00
		PF/LOB contrib. fixed women -500.00
	`
	_, err := Parse([]string{slip}, dto.DocumentRegular)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, FieldNetPay, extractionErr.Field)
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestParseUnparsableNumber(t *testing.T) {
	slip := `
		Pay period 11.2023
		Gross salary 8,000.00
		PF/LOB contrib. fixed men -500.00
		Net salary 7'500.00
	`
	_, err := Parse([]string{slip}, dto.DocumentRegular)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, FieldGrossSalary, extractionErr.Field)
	assert.ErrorIs(t, err, ErrUnparsableNumber)
}

func TestParseSkipsUnreadableRowWhenAnotherMatches(t *testing.T) {
	slip := regularSlip + `
		Net salary 2023: see annual statement
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)
	assert.True(t, dec("6148").Equal(record.NetPay))
}

func TestParsePeriodFallsBackToFirstDate(t *testing.T) {
	slip := `
		Zurich, 24.11.2023
		Gross salary 8'000.00
		PF/LOB contrib. fixed men -500.00
		Net salary 7'500.00
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)
	assert.Equal(t, "2023-11", record.Period.String())
}

func TestParseStock(t *testing.T) {
	slip := `
		Pay period 11.2023
		Stock Award 12'345.60
		Gross salary 12'345.60
		Already settled social security -777.75
		Balance forward 777.75
		Net salary 0.00
	`
	record, err := Parse([]string{slip}, dto.DocumentStock)
	require.NoError(t, err)

	assert.Equal(t, dto.DocumentStock, record.DocumentKind)
	require.NotNil(t, record.StockIncome)
	assert.True(t, dec("12345.60").Equal(*record.StockIncome))
	assert.True(t, record.PensionContribution.IsZero())
	require.NotNil(t, record.StockSocialSecurityWithheld)
	assert.True(t, dec("777.75").Equal(*record.StockSocialSecurityWithheld))
	require.NotNil(t, record.BalanceForward)
	assert.True(t, dec("777.75").Equal(*record.BalanceForward))
}

func TestParseKindMismatch(t *testing.T) {
	_, err := Parse([]string{regularSlip}, dto.DocumentStock)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, FieldBaseSalary, extractionErr.Field)
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestParseESPP(t *testing.T) {
	slip := regularSlip + `
		ESPP 8'000.00 10.00% -800.00
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)

	require.NotNil(t, record.ESPPContribution)
	assert.True(t, dec("800").Equal(*record.ESPPContribution))
	require.NotNil(t, record.ESPPRate)
	assert.True(t, dec("10").Equal(*record.ESPPRate))
}

func TestParseESPPWithoutPercentageHasNoRate(t *testing.T) {
	slip := regularSlip + `
		ESPP 8'000.00 -800.00
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)

	require.NotNil(t, record.ESPPContribution)
	assert.True(t, dec("800").Equal(*record.ESPPContribution))
	assert.Nil(t, record.ESPPRate)
}

func TestParseSkipsPercentageForAmounts(t *testing.T) {
	slip := `
		Pay period 11.2023
		Gross salary 8'000.00
		OASI contribution -424.00 5.30%
		ESPP -800.00 10.00%
		Net salary 6'776.00
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)

	assert.True(t, dec("424").Equal(record.SocialInsurance(dto.DeductionOASI)))
	require.NotNil(t, record.ESPPContribution)
	assert.True(t, dec("800").Equal(*record.ESPPContribution))
	require.NotNil(t, record.ESPPRate)
	assert.True(t, dec("10").Equal(*record.ESPPRate))
}

func TestParseRegularWithoutPension(t *testing.T) {
	slip := `
		Pay period 11.2023
		Monthly wage 1'500.00
		Gross salary 1'500.00
		OASI contribution 1'500.00 5.30% -79.50
		UI contribution 1'500.00 1.10% -16.50
		Net salary 1'404.00
	`
	record, err := Parse([]string{slip}, dto.DocumentRegular)
	require.NoError(t, err)

	assert.True(t, record.PensionContribution.IsZero())
	assert.True(t, dec("1404").Equal(record.NetPay))
}
