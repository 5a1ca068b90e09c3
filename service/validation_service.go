package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/qst"
	"github.com/Aashish23092/payslip-verifier/rates"
	"github.com/Aashish23092/payslip-verifier/utils"
)

// Check is one entry of the validation table. Run is only called when
// Applies returns true and yields at most one finding.
type Check struct {
	ID      dto.CheckID
	Applies func(in *CheckInput) bool
	Run     func(in *CheckInput) *dto.Finding
}

// CheckInput is the read-only data shared by all checks of one run.
type CheckInput struct {
	Regular dto.FieldRecord
	Stock   *dto.FieldRecord
	Context dto.ValidationContext

	rates          *rates.Table
	tariffs        *qst.Calculator
	stockTolerance decimal.Decimal
}

type ValidationService struct {
	rates          *rates.Table
	tariffs        *qst.Calculator
	stockTolerance decimal.Decimal
	checks         []Check
	logger         *zap.Logger
}

// NewValidationService builds the engine. tariffs may be nil, in which case
// the withholding tax amount is not recomputed.
func NewValidationService(table *rates.Table, tariffs *qst.Calculator, stockTolerance decimal.Decimal, logger *zap.Logger) *ValidationService {
	return &ValidationService{
		rates:          table,
		tariffs:        tariffs,
		stockTolerance: stockTolerance,
		checks:         defaultChecks(),
		logger:         logger,
	}
}

// Checks returns the check table in execution order.
func (s *ValidationService) Checks() []Check {
	return s.checks
}

// Validate runs every applicable check in table order. Findings come back in
// the same order; passing checks add nothing except where a check reports an
// informational result.
func (s *ValidationService) Validate(regular dto.FieldRecord, stock *dto.FieldRecord, vctx dto.ValidationContext) []dto.Finding {
	in := &CheckInput{
		Regular:        regular,
		Stock:          stock,
		Context:        vctx,
		rates:          s.rates,
		tariffs:        s.tariffs,
		stockTolerance: s.stockTolerance,
	}

	findings := make([]dto.Finding, 0, len(s.checks))
	for _, check := range s.checks {
		if check.Applies != nil && !check.Applies(in) {
			s.logger.Debug("check skipped", zap.String("check", string(check.ID)))
			continue
		}
		f := check.Run(in)
		if f == nil {
			s.logger.Debug("check passed", zap.String("check", string(check.ID)))
			continue
		}
		f.CheckID = check.ID
		s.logger.Debug("check finding",
			zap.String("check", string(check.ID)),
			zap.Stringer("severity", f.Severity),
			zap.String("message", f.Message))
		findings = append(findings, *f)
	}
	return findings
}

// records returns the regular record followed by the stock record if any.
func (in *CheckInput) records() []dto.FieldRecord {
	if in.Stock == nil {
		return []dto.FieldRecord{in.Regular}
	}
	return []dto.FieldRecord{in.Regular, *in.Stock}
}

// sum adds up one amount over all records.
func (in *CheckInput) sum(value func(dto.FieldRecord) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range in.records() {
		total = total.Add(value(r))
	}
	return total
}

func (in *CheckInput) year() int {
	return in.Regular.Period.Year
}

// age is the employee's age at the end of the pay year.
func (in *CheckInput) age() int {
	return in.year() - in.Context.BirthYear
}

// monthlyBase is the regular base salary, the gross salary when the slip
// prints no monthly wage row.
func (in *CheckInput) monthlyBase() decimal.Decimal {
	if in.Regular.BaseSalary != nil {
		return *in.Regular.BaseSalary
	}
	return in.Regular.GrossSalary
}

// annualSalary is the salary used for BVG bands.
func (in *CheckInput) annualSalary() decimal.Decimal {
	if in.Context.ExpectedBaseSalary != nil {
		return *in.Context.ExpectedBaseSalary
	}
	return in.monthlyBase().Mul(twelve)
}

// siGross is the salary subject to social insurance across all records.
func (in *CheckInput) siGross() decimal.Decimal {
	return in.sum(func(r dto.FieldRecord) decimal.Decimal {
		return r.GrossSalary.Sub(dto.Value(r.SIExemptAllowances))
	})
}

// yearRates returns the reference data for year, or the warning to report
// when the table does not cover it.
func (in *CheckInput) yearRates(year int) (rates.YearRates, *dto.Finding) {
	r, err := in.rates.ForYear(year)
	if errors.Is(err, rates.ErrNoRates) {
		return rates.YearRates{}, warning(fmt.Sprintf("no reference rates for %d, check skipped", year))
	}
	return r, nil
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func finding(severity dto.Severity, message string) *dto.Finding {
	return &dto.Finding{Severity: severity, Message: message}
}

func warning(message string) *dto.Finding {
	return finding(dto.SeverityWarning, message)
}

// compare reports a finding when actual differs from expected by more than
// tolerance.
func compare(severity dto.Severity, what string, expected, actual, tolerance decimal.Decimal) *dto.Finding {
	if utils.WithinTolerance(expected, actual, tolerance) {
		return nil
	}
	return &dto.Finding{
		Severity: severity,
		Message: fmt.Sprintf("%s: expected CHF %s, payslip states CHF %s",
			what, utils.FormatCHF(expected), utils.FormatCHF(actual)),
		Expected: amount(expected),
		Actual:   amount(actual),
	}
}
