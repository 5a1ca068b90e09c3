package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the rounding tolerance for currency comparisons (CHF).
var DefaultTolerance = decimal.RequireFromString("0.01")

// ValidationContext carries the caller's expectations for one run.
type ValidationContext struct {
	BirthYear                   int              `json:"birth_year"`
	WithholdingTaxExpected      bool             `json:"withholding_tax_expected"`
	ExpectedPensionContribution *decimal.Decimal `json:"expected_pension_contribution,omitempty"`
	ExpectedBaseSalary          *decimal.Decimal `json:"expected_base_salary,omitempty"` // annual
	Tolerance                   decimal.Decimal  `json:"tolerance"`
}

// NewValidationContext returns a context with the default tolerance.
func NewValidationContext(birthYear int) ValidationContext {
	return ValidationContext{BirthYear: birthYear, Tolerance: DefaultTolerance}
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}

type CheckID string

const (
	CheckNetPay                      CheckID = "net_pay"
	CheckWithholdingTaxApplicability CheckID = "withholding_tax_applicability"
	CheckPensionContributionMatch    CheckID = "pension_contribution_match"
	CheckPensionAgeBand              CheckID = "pension_age_band"
	CheckBaseSalaryCrossCheck        CheckID = "base_salary_cross_check"
	CheckPeriodConsistency           CheckID = "period_consistency"

	CheckBaseSalary             CheckID = "base_salary"
	CheckStockNetPay            CheckID = "stock_net_pay"
	CheckStockSocialSecurity    CheckID = "stock_social_security"
	CheckOASIContribution       CheckID = "oasi_contribution"
	CheckUIContribution         CheckID = "ui_contribution"
	CheckSUIContribution        CheckID = "sui_contribution"
	CheckAccidentInsurance      CheckID = "accident_insurance"
	CheckDailySicknessInsurance CheckID = "daily_sickness_insurance"
	CheckWithholdingTaxAmount   CheckID = "withholding_tax_amount"
	CheckESPPContribution       CheckID = "espp_contribution"
	CheckBalanceForward         CheckID = "balance_forward"
)

// Finding is one result of a validation check.
type Finding struct {
	CheckID  CheckID  `json:"check_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Expected string   `json:"expected_value,omitempty"`
	Actual   string   `json:"actual_value,omitempty"`
}

// Report is the outcome of one verification run.
type Report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Records     []FieldRecord `json:"records"`
	Findings    []Finding     `json:"findings"`
}

// Count returns the number of findings with the given severity.
func (r *Report) Count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any Error-severity finding was produced.
func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// BySeverity returns the findings of one severity, in check order.
func (r *Report) BySeverity(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}
