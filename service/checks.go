package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/qst"
	"github.com/Aashish23092/payslip-verifier/utils"
)

var twelve = decimal.NewFromInt(12)

func defaultChecks() []Check {
	return []Check{
		{ID: dto.CheckNetPay, Run: checkNetPay},
		{ID: dto.CheckWithholdingTaxApplicability, Run: checkWithholdingApplicability},
		{ID: dto.CheckPensionContributionMatch, Applies: hasExpectedPension, Run: checkPensionMatch},
		{ID: dto.CheckPensionAgeBand, Run: checkPensionAgeBand},
		{ID: dto.CheckBaseSalaryCrossCheck, Applies: hasExpectedBaseAndStock, Run: checkBaseSalaryAcross},
		{ID: dto.CheckPeriodConsistency, Applies: hasStock, Run: checkPeriodConsistency},

		{ID: dto.CheckBaseSalary, Applies: hasExpectedBaseOnly, Run: checkBaseSalary},
		{ID: dto.CheckStockNetPay, Applies: hasStock, Run: checkStockNetPay},
		{ID: dto.CheckStockSocialSecurity, Applies: hasStock, Run: checkStockSocialSecurity},
		{ID: dto.CheckOASIContribution, Run: checkOASI},
		{ID: dto.CheckUIContribution, Run: checkUI},
		{ID: dto.CheckSUIContribution, Run: checkSUI},
		{ID: dto.CheckAccidentInsurance, Run: checkPresent(dto.DeductionAccident, "accident insurance (SUVA/NBU)")},
		{ID: dto.CheckDailySicknessInsurance, Run: checkPresent(dto.DeductionSickness, "daily sickness allowance (DSA/KTG)")},
		{ID: dto.CheckWithholdingTaxAmount, Applies: canRecomputeWithholding, Run: checkWithholdingAmount},
		{ID: dto.CheckESPPContribution, Applies: hasESPP, Run: checkESPP},
		{ID: dto.CheckBalanceForward, Applies: hasBalanceForward, Run: checkBalanceForward},
	}
}

func hasStock(in *CheckInput) bool {
	return in.Stock != nil
}

func hasExpectedPension(in *CheckInput) bool {
	return in.Context.ExpectedPensionContribution != nil
}

func hasExpectedBaseAndStock(in *CheckInput) bool {
	return in.Context.ExpectedBaseSalary != nil && in.Stock != nil
}

func hasExpectedBaseOnly(in *CheckInput) bool {
	return in.Context.ExpectedBaseSalary != nil && in.Stock == nil
}

func canRecomputeWithholding(in *CheckInput) bool {
	return in.Context.WithholdingTaxExpected && in.tariffs != nil && in.Regular.WithholdingTariff != nil
}

func hasESPP(in *CheckInput) bool {
	return in.Regular.ESPPContribution != nil && in.Regular.ESPPRate != nil
}

func hasBalanceForward(in *CheckInput) bool {
	for _, r := range in.records() {
		if r.BalanceForward != nil {
			return true
		}
	}
	return false
}

// netPay is gross minus deductions plus any carried balance. Non-cash stock
// income is part of the gross but never paid out.
func netPay(r dto.FieldRecord) decimal.Decimal {
	return r.GrossSalary.
		Sub(dto.Value(r.StockIncome)).
		Sub(r.TotalDeductions()).
		Add(dto.Value(r.BalanceForward))
}

func checkNetPay(in *CheckInput) *dto.Finding {
	return compare(dto.SeverityError, "net pay does not equal gross salary minus deductions",
		netPay(in.Regular), in.Regular.NetPay, in.Context.Tolerance)
}

func checkStockNetPay(in *CheckInput) *dto.Finding {
	return compare(dto.SeverityError, "stock payslip net pay does not equal gross salary minus deductions",
		netPay(*in.Stock), in.Stock.NetPay, in.Context.Tolerance)
}

func checkWithholdingApplicability(in *CheckInput) *dto.Finding {
	stated := in.sum(func(r dto.FieldRecord) decimal.Decimal { return dto.Value(r.WithholdingTax) })
	if in.Context.WithholdingTaxExpected {
		if !stated.IsPositive() {
			return &dto.Finding{
				Severity: dto.SeverityError,
				Message:  "withholding tax expected but not found on the payslip",
				Expected: "> 0.00",
				Actual:   amount(stated),
			}
		}
		return nil
	}
	if !stated.IsZero() {
		return &dto.Finding{
			Severity: dto.SeverityError,
			Message:  "withholding tax deducted although none is expected",
			Expected: amount(decimal.Zero),
			Actual:   amount(stated),
		}
	}
	return nil
}

func statedPension(in *CheckInput) decimal.Decimal {
	return in.sum(func(r dto.FieldRecord) decimal.Decimal { return r.PensionContribution })
}

func checkPensionMatch(in *CheckInput) *dto.Finding {
	return compare(dto.SeverityWarning, "pension contribution differs from the pension certificate",
		*in.Context.ExpectedPensionContribution, statedPension(in), in.Context.Tolerance)
}

func checkPensionAgeBand(in *CheckInput) *dto.Finding {
	r, missing := in.yearRates(in.year())
	if missing != nil {
		return missing
	}
	annual := in.annualSalary()
	stated := statedPension(in)
	age := in.age()

	if annual.LessThan(r.BVGEntryThreshold) {
		if stated.IsZero() {
			return nil
		}
		return &dto.Finding{
			Severity: dto.SeverityError,
			Message: fmt.Sprintf("pension contribution found although the annual salary CHF %s is below the BVG entry threshold CHF %s",
				utils.FormatCHF(annual), utils.FormatCHF(r.BVGEntryThreshold)),
			Expected: amount(decimal.Zero),
			Actual:   amount(stated),
		}
	}

	minimum := r.StatutoryMinimumContribution(annual, age)
	if stated.IsZero() {
		return &dto.Finding{
			Severity: dto.SeverityWarning,
			Message: fmt.Sprintf("no pension contribution found although the annual salary CHF %s is at or above the BVG entry threshold CHF %s",
				utils.FormatCHF(annual), utils.FormatCHF(r.BVGEntryThreshold)),
			Expected: ">= " + amount(minimum),
			Actual:   amount(stated),
		}
	}
	ceiling := r.ContributionCeiling(annual, age)
	if stated.GreaterThan(ceiling.Add(in.Context.Tolerance)) {
		return &dto.Finding{
			Severity: dto.SeverityError,
			Message: fmt.Sprintf("pension contribution is implausibly high for age %d, check your pension certificate (at most CHF %s)",
				age, utils.FormatCHF(ceiling)),
			Expected: "<= " + amount(ceiling),
			Actual:   amount(stated),
		}
	}
	if stated.LessThan(minimum.Sub(in.Context.Tolerance)) {
		return &dto.Finding{
			Severity: dto.SeverityWarning,
			Message: fmt.Sprintf("pension contribution is below the statutory BVG minimum for age %d (CHF %s)",
				age, utils.FormatCHF(minimum)),
			Expected: ">= " + amount(minimum),
			Actual:   amount(stated),
		}
	}
	return nil
}

func expectedMonthlyBase(in *CheckInput) decimal.Decimal {
	return utils.Round05(in.Context.ExpectedBaseSalary.Div(twelve))
}

func checkBaseSalaryAcross(in *CheckInput) *dto.Finding {
	// stock slips carry no monthly wage row, so the regular slip alone holds the base
	return compare(dto.SeverityError, "base salary across payslips does not match the annual base salary",
		expectedMonthlyBase(in), in.monthlyBase(), in.Context.Tolerance)
}

func checkBaseSalary(in *CheckInput) *dto.Finding {
	return compare(dto.SeverityError, "monthly wage does not match the annual base salary",
		expectedMonthlyBase(in), in.monthlyBase(), in.Context.Tolerance)
}

func checkPeriodConsistency(in *CheckInput) *dto.Finding {
	regular, stock := in.Regular.Period, in.Stock.Period
	if regular == stock {
		return &dto.Finding{
			Severity: dto.SeverityInfo,
			Message:  fmt.Sprintf("payslip periods match (%s)", regular),
			Expected: regular.String(),
			Actual:   stock.String(),
		}
	}
	return &dto.Finding{
		Severity: dto.SeverityError,
		Message:  fmt.Sprintf("stock payslip period %s does not match payslip period %s", stock, regular),
		Expected: regular.String(),
		Actual:   stock.String(),
	}
}

func checkStockSocialSecurity(in *CheckInput) *dto.Finding {
	r, missing := in.yearRates(in.Stock.Period.Year)
	if missing != nil {
		return missing
	}
	expected, ok := r.StockAwardWithholding(dto.Value(in.Stock.StockIncome))
	if !ok {
		return warning(fmt.Sprintf("no stock award withholding rate for %d, check skipped", in.Stock.Period.Year))
	}
	return compare(dto.SeverityError, "social security withheld on the stock award",
		expected, dto.Value(in.Stock.StockSocialSecurityWithheld), in.stockTolerance)
}

func statedSocialInsurance(in *CheckInput, name string) decimal.Decimal {
	return in.sum(func(r dto.FieldRecord) decimal.Decimal { return r.SocialInsurance(name) })
}

func checkOASI(in *CheckInput) *dto.Finding {
	r, missing := in.yearRates(in.year())
	if missing != nil {
		return missing
	}
	return compare(dto.SeverityError, "OASI (AHV/IV/EO) contribution",
		r.OASIContribution(in.siGross()), statedSocialInsurance(in, dto.DeductionOASI), in.Context.Tolerance)
}

func checkUI(in *CheckInput) *dto.Finding {
	r, missing := in.yearRates(in.year())
	if missing != nil {
		return missing
	}
	return compare(dto.SeverityError, "unemployment insurance (ALV) contribution",
		r.UIContribution(in.siGross()), statedSocialInsurance(in, dto.DeductionUI), in.Context.Tolerance)
}

func checkSUI(in *CheckInput) *dto.Finding {
	r, missing := in.yearRates(in.year())
	if missing != nil {
		return missing
	}
	stated := statedSocialInsurance(in, dto.DeductionSUI)
	if r.SUIRate.IsZero() {
		if stated.IsZero() {
			return nil
		}
		return &dto.Finding{
			Severity: dto.SeverityError,
			Message:  fmt.Sprintf("solidarity (ALV 2) deduction found although none is levied in %d", in.year()),
			Expected: amount(decimal.Zero),
			Actual:   amount(stated),
		}
	}
	return compare(dto.SeverityError, "solidarity unemployment insurance (ALV 2) contribution",
		r.SUIContribution(in.siGross()), stated, in.Context.Tolerance)
}

func checkPresent(name, label string) func(*CheckInput) *dto.Finding {
	return func(in *CheckInput) *dto.Finding {
		for _, r := range in.records() {
			if r.HasSocialInsurance(name) {
				return nil
			}
		}
		return warning(label + " deduction not found on the payslip")
	}
}

func checkWithholdingAmount(in *CheckInput) *dto.Finding {
	tariff := in.Regular.WithholdingTariff
	if !qst.IsSupported(tariff.Code) {
		return warning(fmt.Sprintf("tariff code %s is not supported, amount not recomputed", tariff.Code))
	}

	income := in.sum(func(r dto.FieldRecord) decimal.Decimal { return r.GrossSalary })
	expected, err := in.tariffs.Calculate(in.year(), tariff.Canton, tariff.Code, income, true)
	if err != nil {
		return warning(fmt.Sprintf("withholding tax not recomputed: %v", err))
	}
	stated := in.sum(func(r dto.FieldRecord) decimal.Decimal { return dto.Value(r.WithholdingTax) })
	f := compare(dto.SeverityError, fmt.Sprintf("withholding tax for tariff %s/%s", tariff.Canton, tariff.Code),
		expected, stated, in.Context.Tolerance)
	if f == nil {
		return nil
	}

	// the monthly table is only an approximation in these cases
	switch {
	case qst.HasAnnualModel(tariff.Canton):
		f.Severity = dto.SeverityWarning
		f.Message += fmt.Sprintf(" (canton %s uses the annual model)", tariff.Canton)
	case tariff.SIDays != 30:
		f.Severity = dto.SeverityWarning
		f.Message += fmt.Sprintf(" (%d SI days instead of 30)", tariff.SIDays)
	}
	return f
}

func checkESPP(in *CheckInput) *dto.Finding {
	applicable := in.monthlyBase().Add(dto.Value(in.Regular.Bonus))
	rate := in.Regular.ESPPRate.Div(decimal.NewFromInt(100))
	return compare(dto.SeverityError, "ESPP contribution",
		utils.Round05(applicable.Mul(rate)), *in.Regular.ESPPContribution, in.Context.Tolerance)
}

func checkBalanceForward(in *CheckInput) *dto.Finding {
	if in.Stock == nil && !dto.Value(in.Regular.BalanceForward).IsZero() {
		return warning("balance forward found but no stock payslip was supplied")
	}
	total := in.sum(func(r dto.FieldRecord) decimal.Decimal { return dto.Value(r.BalanceForward) })
	if total.IsZero() {
		return nil
	}
	return &dto.Finding{
		Severity: dto.SeverityError,
		Message:  "balance forward across payslips does not cancel out",
		Expected: amount(decimal.Zero),
		Actual:   amount(total),
	}
}
