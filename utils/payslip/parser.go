package payslip

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/utils"
)

// reTariffSubtotal matches the withholding tax subtotal row
// "January 2022 / 30 SI-Days / ZH / A0N" after folding.
var reTariffSubtotal = regexp.MustCompile(`(\d{1,2})\s*(?:si-days|sv-tage|jours\s+avs|giorni\s+avs)\s*/\s*([a-z]{2})\s*/\s*([a-z]\d[yn])\b`)

var socialInsuranceFields = []struct {
	field FieldName
	key   string
}{
	{FieldOASI, dto.DeductionOASI},
	{FieldUI, dto.DeductionUI},
	{FieldSUI, dto.DeductionSUI},
	{FieldAccident, dto.DeductionAccident},
	{FieldSickness, dto.DeductionSickness},
}

// match is one distinct value found for a field.
type match struct {
	value decimal.Decimal
	text  string
}

// document is the folded line view of a payslip.
type document struct {
	pages [][]string
}

func newDocument(pages []string) document {
	doc := document{pages: make([][]string, 0, len(pages))}
	for _, page := range pages {
		text := utils.Fold(utils.NormalizeText(page))
		if text == "" {
			doc.pages = append(doc.pages, nil)
			continue
		}
		doc.pages = append(doc.pages, strings.Split(text, "\n"))
	}
	return doc
}

// lookup collects the distinct values printed after the labels of field.
// Values are returned as printed, sign included. Rows whose number cannot be
// read are skipped; they only fail the lookup when no other row has a value.
func (d document) lookup(field FieldName) ([]match, error) {
	rule := ruleFor(field)
	var (
		matches    []match
		unreadable []string
	)
	for _, lines := range d.pages {
		for _, line := range lines {
			for _, re := range rule.patterns {
				for _, loc := range re.FindAllStringIndex(line, -1) {
					tokens, err := rowAmounts(line[loc[1]:])
					if err != nil {
						unreadable = append(unreadable, strings.TrimSpace(line))
						continue
					}
					tok, ok := pick(tokens, rule.Column, rule.Rate)
					if !ok {
						continue
					}
					matches = appendDistinct(matches, match{value: tok.Value, text: tok.Text})
				}
			}
		}
	}
	if len(matches) == 0 && len(unreadable) > 0 {
		return nil, &ExtractionError{Reason: ErrUnparsableNumber, Field: field, Candidates: unreadable}
	}
	return matches, nil
}

// pick selects the value of a row among the numbers of the wanted kind:
// percentages for rate fields, plain amounts otherwise.
func pick(tokens []amountToken, col column, rate bool) (amountToken, bool) {
	var kind []amountToken
	for _, tok := range tokens {
		if tok.Percent == rate {
			kind = append(kind, tok)
		}
	}
	if len(kind) == 0 {
		return amountToken{}, false
	}
	if col == columnFirst {
		return kind[0], true
	}
	return kind[len(kind)-1], true
}

func appendDistinct(matches []match, m match) []match {
	for _, existing := range matches {
		if existing.value.Equal(m.value) {
			return matches
		}
	}
	return append(matches, m)
}

// single reduces the matches of a field to one value. ok is false when the
// field is not on the document.
func single(field FieldName, matches []match) (decimal.Decimal, bool, error) {
	switch len(matches) {
	case 0:
		return decimal.Zero, false, nil
	case 1:
		return matches[0].value, true, nil
	}
	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, m.text)
	}
	return decimal.Zero, false, &ExtractionError{Reason: ErrAmbiguousMatch, Field: field, Candidates: candidates}
}

func (d document) required(field FieldName) (decimal.Decimal, error) {
	matches, err := d.lookup(field)
	if err != nil {
		return decimal.Zero, err
	}
	v, ok, err := single(field, matches)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, &ExtractionError{Reason: ErrFieldNotFound, Field: field}
	}
	return v, nil
}

// optional returns nil when the field is absent. Rows that carry text instead
// of a number are ignored for optional fields.
func (d document) optional(field FieldName) (*decimal.Decimal, error) {
	matches, err := d.lookup(field)
	if err != nil {
		if errors.Is(err, ErrUnparsableNumber) {
			return nil, nil
		}
		return nil, err
	}
	v, ok, err := single(field, matches)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func (d document) tariff() *dto.WithholdingTariff {
	for _, lines := range d.pages {
		for _, line := range lines {
			m := reTariffSubtotal.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			days, _ := strconv.Atoi(m[1])
			return &dto.WithholdingTariff{
				SIDays: days,
				Canton: strings.ToUpper(m[2]),
				Code:   strings.ToUpper(m[3]),
			}
		}
	}
	return nil
}

func magnitude(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	return dto.Amount(d.Abs())
}

// Parse extracts the canonical fields of one payslip from its page texts.
// The first failing field aborts extraction with an *ExtractionError.
func Parse(pages []string, kind dto.DocumentKind) (dto.FieldRecord, error) {
	doc := newDocument(pages)
	record := dto.FieldRecord{
		DocumentKind:              kind,
		SocialInsuranceDeductions: map[string]decimal.Decimal{},
	}

	// A monthly wage row only belongs on a regular slip, a stock award row
	// only on a stock slip.
	foreign := FieldStockIncome
	if kind == dto.DocumentStock {
		foreign = FieldBaseSalary
	}
	if matches, _ := doc.lookup(foreign); len(matches) > 0 {
		return dto.FieldRecord{}, &ExtractionError{Reason: ErrKindMismatch, Field: foreign, Candidates: []string{matches[0].text}}
	}

	period, err := findPeriod(doc.pages)
	if err != nil {
		return dto.FieldRecord{}, err
	}
	record.Period = period

	if record.GrossSalary, err = doc.required(FieldGrossSalary); err != nil {
		return dto.FieldRecord{}, err
	}
	// no pension row means no BVG deduction, e.g. below the entry threshold
	pension, err := doc.optional(FieldPensionContribution)
	if err != nil {
		return dto.FieldRecord{}, err
	}
	record.PensionContribution = dto.Value(pension)
	if record.NetPay, err = doc.required(FieldNetPay); err != nil {
		return dto.FieldRecord{}, err
	}
	if kind == dto.DocumentStock {
		stock, err := doc.required(FieldStockIncome)
		if err != nil {
			return dto.FieldRecord{}, err
		}
		record.StockIncome = dto.Amount(stock.Abs())
	}

	optionals := []struct {
		field FieldName
		dst   **decimal.Decimal
	}{
		{FieldWithholdingTax, &record.WithholdingTax},
		{FieldBaseSalary, &record.BaseSalary},
		{FieldSIExemptAllowances, &record.SIExemptAllowances},
		{FieldBonus, &record.Bonus},
		{FieldESPPContribution, &record.ESPPContribution},
		{FieldESPPRate, &record.ESPPRate},
		{FieldStockSocialSecurityWithheld, &record.StockSocialSecurityWithheld},
		{FieldBalanceForward, &record.BalanceForward},
	}
	for _, o := range optionals {
		v, err := doc.optional(o.field)
		if err != nil {
			return dto.FieldRecord{}, err
		}
		*o.dst = v
	}

	for _, si := range socialInsuranceFields {
		v, err := doc.optional(si.field)
		if err != nil {
			return dto.FieldRecord{}, err
		}
		if v != nil {
			record.SocialInsuranceDeductions[si.key] = v.Abs()
		}
	}

	record.GrossSalary = record.GrossSalary.Abs()
	record.PensionContribution = record.PensionContribution.Abs()
	record.WithholdingTax = magnitude(record.WithholdingTax)
	record.BaseSalary = magnitude(record.BaseSalary)
	record.SIExemptAllowances = magnitude(record.SIExemptAllowances)
	record.Bonus = magnitude(record.Bonus)
	record.ESPPContribution = magnitude(record.ESPPContribution)
	record.ESPPRate = magnitude(record.ESPPRate)
	record.StockSocialSecurityWithheld = magnitude(record.StockSocialSecurityWithheld)
	record.WithholdingTariff = doc.tariff()

	return record, nil
}
