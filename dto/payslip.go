package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DocumentKind string

const (
	DocumentRegular DocumentKind = "regular"
	DocumentStock   DocumentKind = "stock"
)

// Social insurance deduction keys used in FieldRecord.SocialInsuranceDeductions.
const (
	DeductionOASI     = "oasi"     // AHV/IV/EO
	DeductionUI       = "ui"       // ALV
	DeductionSUI      = "sui"      // ALV solidarity percentage
	DeductionAccident = "accident" // SUVA / NBU
	DeductionSickness = "sickness" // DSA / KTG
)

// Period identifies the pay month of a payslip.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// MarshalText renders the period as YYYY-MM.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a YYYY-MM period.
func (p *Period) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006-01", string(text))
	if err != nil {
		return fmt.Errorf("invalid period %q: %w", string(text), err)
	}
	p.Year, p.Month = t.Year(), t.Month()
	return nil
}

// WithholdingTariff is parsed from the withholding tax subtotal line,
// e.g. "January 2022 / 30 SI-Days / ZH / A0N".
type WithholdingTariff struct {
	SIDays int    `json:"si_days"`
	Canton string `json:"canton"`
	Code   string `json:"code"`
}

// FieldRecord is the normalized content of one payslip document. It is built
// once by the extractor and treated as read-only afterwards. All amounts are
// stored as non-negative magnitudes except BalanceForward, which keeps its sign
// so that carries between documents can cancel out.
type FieldRecord struct {
	DocumentKind DocumentKind `json:"document_kind"`
	SourceName   string       `json:"source_name,omitempty"`
	Period       Period       `json:"period"`

	GrossSalary               decimal.Decimal            `json:"gross_salary"`
	WithholdingTax            *decimal.Decimal           `json:"withholding_tax,omitempty"`
	PensionContribution       decimal.Decimal            `json:"pension_contribution"`
	SocialInsuranceDeductions map[string]decimal.Decimal `json:"social_insurance_deductions"`
	NetPay                    decimal.Decimal            `json:"net_pay"`
	StockIncome               *decimal.Decimal           `json:"stock_income,omitempty"`

	BaseSalary                  *decimal.Decimal   `json:"base_salary,omitempty"`
	SIExemptAllowances          *decimal.Decimal   `json:"si_exempt_allowances,omitempty"`
	Bonus                       *decimal.Decimal   `json:"bonus,omitempty"`
	ESPPContribution            *decimal.Decimal   `json:"espp_contribution,omitempty"`
	ESPPRate                    *decimal.Decimal   `json:"espp_rate,omitempty"`
	StockSocialSecurityWithheld *decimal.Decimal   `json:"stock_social_security_withheld,omitempty"`
	BalanceForward              *decimal.Decimal   `json:"balance_forward,omitempty"`
	WithholdingTariff           *WithholdingTariff `json:"withholding_tariff,omitempty"`
}

// SocialInsurance returns the named deduction, zero when absent.
func (r FieldRecord) SocialInsurance(name string) decimal.Decimal {
	return r.SocialInsuranceDeductions[name]
}

// HasSocialInsurance reports whether the named deduction was printed on the slip.
func (r FieldRecord) HasSocialInsurance(name string) bool {
	_, ok := r.SocialInsuranceDeductions[name]
	return ok
}

// TotalDeductions sums every deduction field of the record.
func (r FieldRecord) TotalDeductions() decimal.Decimal {
	total := r.PensionContribution
	total = total.Add(Value(r.WithholdingTax))
	total = total.Add(Value(r.ESPPContribution))
	total = total.Add(Value(r.StockSocialSecurityWithheld))
	for _, amount := range r.SocialInsuranceDeductions {
		total = total.Add(amount)
	}
	return total
}

// Value dereferences an optional amount, treating nil as zero.
func Value(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Amount returns a pointer to a copy of d.
func Amount(d decimal.Decimal) *decimal.Decimal {
	return &d
}
