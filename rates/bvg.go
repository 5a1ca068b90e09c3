package rates

import (
	"github.com/shopspring/decimal"

	"github.com/Aashish23092/payslip-verifier/utils"
)

var (
	bvgSalaryCap = decimal.NewFromInt(300000)
	monthsShared = decimal.NewFromInt(24) // twelve months, employee half
)

// ageBands are the BVG savings credit rates (employee and employer together).
var ageBands = []struct {
	from int
	rate decimal.Decimal
}{
	{55, decimal.RequireFromString("0.18")},
	{45, decimal.RequireFromString("0.15")},
	{35, decimal.RequireFromString("0.10")},
	{25, decimal.RequireFromString("0.07")},
}

// SavingsCreditRate returns the savings credit rate for an age at the end of
// the year. Below 25 no savings credit is due.
func SavingsCreditRate(age int) decimal.Decimal {
	for _, band := range ageBands {
		if age >= band.from {
			return band.rate
		}
	}
	return decimal.Zero
}

// NextBandAge returns an age inside the next higher band. From 55 on there is
// no higher band and age is returned unchanged.
func NextBandAge(age int) int {
	if age >= 55 {
		return age
	}
	return age + 10
}

// CoordinatedSalary is the insured salary after the coordination deduction,
// zero below the entry threshold.
func (r YearRates) CoordinatedSalary(annual decimal.Decimal) decimal.Decimal {
	if annual.LessThan(r.BVGEntryThreshold) {
		return decimal.Zero
	}
	coordinated := decimal.Min(annual, r.BVGUpperLimit).Sub(r.CoordinationDeduction)
	return decimal.Max(coordinated, r.MinCoordinatedSalary)
}

// StatutoryMinimumContribution is the monthly employee share of the legal
// minimum savings credit.
func (r YearRates) StatutoryMinimumContribution(annual decimal.Decimal, age int) decimal.Decimal {
	credit := r.CoordinatedSalary(annual).Mul(SavingsCreditRate(age))
	return utils.Round05(credit.Div(monthsShared))
}

// ContributionCeiling is the monthly employee share of an extended plan that
// insures the salary up to 300'000 CHF at the next band's rate. Contributions
// above it are implausible.
func (r YearRates) ContributionCeiling(annual decimal.Decimal, age int) decimal.Decimal {
	if annual.LessThan(r.BVGEntryThreshold) {
		return decimal.Zero
	}
	bandAge := NextBandAge(age)
	insured := annual.Sub(r.CoordinationDeduction)
	if bandAge >= 35 {
		threefold := r.CoordinationDeduction.Mul(decimal.NewFromInt(3))
		insured = insured.Add(decimal.Min(annual, bvgSalaryCap).Sub(threefold))
	}
	if insured.IsNegative() {
		return decimal.Zero
	}
	return utils.Round05(insured.Mul(SavingsCreditRate(bandAge)).Div(monthsShared))
}
