package dto

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/shopspring/decimal"
)

// PayslipVerificationRequest represents the incoming multipart request
type PayslipVerificationRequest struct {
	Payslip             *multipart.FileHeader `form:"payslip" binding:"required"`
	StockPayslip        *multipart.FileHeader `form:"stock_payslip"`
	Password            string                `form:"password"`
	StockPassword       string                `form:"stock_password"`
	BirthYear           int                   `form:"birth_year" binding:"required"`
	WithholdingTax      bool                  `form:"withholding_tax"`
	PensionContribution string                `form:"pension_contribution"`
	BaseSalary          string                `form:"base_salary"`
}

// Validate performs basic validation on the request
func (r *PayslipVerificationRequest) Validate() error {
	if r.Payslip == nil {
		return ErrMissingPayslip
	}
	for _, f := range []*multipart.FileHeader{r.Payslip, r.StockPayslip} {
		if f != nil && !strings.HasSuffix(strings.ToLower(f.Filename), ".pdf") {
			return fmt.Errorf("invalid file type for %s. Supported: PDF", f.Filename)
		}
	}
	if r.BirthYear < 1900 || r.BirthYear > 2100 {
		return errors.New("birth_year must be a four digit year")
	}
	if _, err := OptionalAmount(r.PensionContribution); err != nil {
		return fmt.Errorf("pension_contribution: %w", err)
	}
	if _, err := OptionalAmount(r.BaseSalary); err != nil {
		return fmt.Errorf("base_salary: %w", err)
	}
	return nil
}

// ValidationContext builds the run expectations from the request fields.
func (r *PayslipVerificationRequest) ValidationContext(tolerance decimal.Decimal) (ValidationContext, error) {
	vctx := NewValidationContext(r.BirthYear)
	vctx.Tolerance = tolerance
	vctx.WithholdingTaxExpected = r.WithholdingTax

	pension, err := OptionalAmount(r.PensionContribution)
	if err != nil {
		return vctx, fmt.Errorf("pension_contribution: %w", err)
	}
	base, err := OptionalAmount(r.BaseSalary)
	if err != nil {
		return vctx, fmt.Errorf("base_salary: %w", err)
	}
	vctx.ExpectedPensionContribution = pension
	vctx.ExpectedBaseSalary = base
	return vctx, nil
}

// OptionalAmount parses a user supplied amount; an empty string yields nil.
// Swiss apostrophe separators are accepted.
func OptionalAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q must not be negative", s)
	}
	return &d, nil
}
