package rates

import (
	"github.com/shopspring/decimal"

	"github.com/Aashish23092/payslip-verifier/utils"
)

var twelve = decimal.NewFromInt(12)

// MonthlyUIMaxInsured is the monthly ceiling for unemployment insurance.
func (r YearRates) MonthlyUIMaxInsured() decimal.Decimal {
	return r.UIMaxInsuredSalary.Div(twelve)
}

// OASIContribution is the employee OASI (AHV/IV/EO) share for a monthly
// social insurance salary.
func (r YearRates) OASIContribution(siGross decimal.Decimal) decimal.Decimal {
	return utils.Round05(siGross.Mul(r.OASIRate))
}

// UIContribution is the employee unemployment insurance share, capped at the
// maximum insured salary.
func (r YearRates) UIContribution(siGross decimal.Decimal) decimal.Decimal {
	insured := decimal.Min(siGross, r.MonthlyUIMaxInsured())
	return utils.Round05(insured.Mul(r.UIRate))
}

// SUIContribution is the solidarity share levied on the salary above the UI
// ceiling. It is zero for years without a solidarity rate.
func (r YearRates) SUIContribution(siGross decimal.Decimal) decimal.Decimal {
	excess := siGross.Sub(r.MonthlyUIMaxInsured())
	if r.SUIRate.IsZero() || !excess.IsPositive() {
		return decimal.Zero
	}
	return utils.Round05(excess.Mul(r.SUIRate))
}

// StockAwardWithholding is the social security withheld on a stock award.
// ok is false when the year has no published rate.
func (r YearRates) StockAwardWithholding(stockIncome decimal.Decimal) (decimal.Decimal, bool) {
	if r.StockAwardWithholdingRate == nil {
		return decimal.Zero, false
	}
	return utils.Round05(stockIncome.Mul(*r.StockAwardWithholdingRate)), true
}
