package payslip

import (
	"regexp"
	"strings"

	"github.com/Aashish23092/payslip-verifier/utils"
)

type FieldName string

const (
	FieldPeriod                      FieldName = "period"
	FieldGrossSalary                 FieldName = "gross_salary"
	FieldWithholdingTax              FieldName = "withholding_tax"
	FieldPensionContribution         FieldName = "pension_contribution"
	FieldOASI                        FieldName = "oasi_contribution"
	FieldUI                          FieldName = "ui_contribution"
	FieldSUI                         FieldName = "sui_contribution"
	FieldAccident                    FieldName = "accident_insurance"
	FieldSickness                    FieldName = "daily_sickness_insurance"
	FieldNetPay                      FieldName = "net_pay"
	FieldStockIncome                 FieldName = "stock_income"
	FieldBaseSalary                  FieldName = "base_salary"
	FieldSIExemptAllowances          FieldName = "si_exempt_allowances"
	FieldBonus                       FieldName = "bonus"
	FieldESPPContribution            FieldName = "espp_contribution"
	FieldESPPRate                    FieldName = "espp_rate"
	FieldStockSocialSecurityWithheld FieldName = "stock_social_security_withheld"
	FieldBalanceForward              FieldName = "balance_forward"
)

type Locale string

const (
	LocaleEN Locale = "en"
	LocaleDE Locale = "de"
	LocaleFR Locale = "fr"
	LocaleIT Locale = "it"
)

// column selects which number of a payslip row holds the field value.
// Deduction rows usually print basis, rate and amount; the amount is last.
type column int

const (
	columnFirst column = iota
	columnLast
)

// Rate fields only take percentages ("10.00%"); all other fields skip them.
// Column is counted among the numbers of the matching kind.
type labelRule struct {
	Field  FieldName
	Column column
	Rate   bool
	Labels map[Locale][]string
}

// labelTable maps each canonical field to the row labels used by Swiss
// payroll software. A label only counts when a number follows it on the
// same row, which also keeps prefixes ("PF/LOB contrib. fixed") from
// matching longer labels ("PF/LOB contrib. fixed men").
var labelTable = []labelRule{
	{
		Field:  FieldGrossSalary,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Gross salary", "Gross wage"},
			LocaleDE: {"Bruttolohn", "Total Brutto"},
			LocaleFR: {"Salaire brut"},
			LocaleIT: {"Salario lordo", "Stipendio lordo"},
		},
	},
	{
		Field:  FieldWithholdingTax,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Withholding tax deduction", "Withholding tax"},
			LocaleDE: {"Quellensteuerabzug", "Quellensteuer"},
			LocaleFR: {"Impôt à la source"},
			LocaleIT: {"Imposta alla fonte"},
		},
	},
	{
		Field:  FieldPensionContribution,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"PF/LOB contrib. fixed men", "PF/LOB contrib. fixed women", "PF/LOB contrib. fixed", "Pension fund contribution"},
			LocaleDE: {"BVG-Beitrag", "BVG Beitrag", "PK-Beitrag", "Pensionskasse"},
			LocaleFR: {"Cotisation LPP", "Caisse de pension"},
			LocaleIT: {"Contributo LPP", "Cassa pensione"},
		},
	},
	{
		Field:  FieldOASI,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"OASI contribution"},
			LocaleDE: {"AHV/IV/EO-Beitrag", "AHV/IV/EO Beitrag", "AHV-Beitrag"},
			LocaleFR: {"Cotisation AVS/AI/APG", "AVS/AI/APG"},
			LocaleIT: {"Contributo AVS/AI/IPG", "AVS/AI/IPG"},
		},
	},
	{
		Field:  FieldUI,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"UI contribution"},
			LocaleDE: {"ALV-Beitrag", "ALV Beitrag"},
			LocaleFR: {"Cotisation AC"},
			LocaleIT: {"Contributo AD"},
		},
	},
	{
		Field:  FieldSUI,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"SUI contribution"},
			LocaleDE: {"ALV-Solidaritätsbeitrag", "ALV 2"},
			LocaleFR: {"Cotisation AC solidarité"},
			LocaleIT: {"Contributo AD solidarietà"},
		},
	},
	{
		Field:  FieldAccident,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"SUVA contribution", "NOAI contribution"},
			LocaleDE: {"NBU-Beitrag", "NBU Beitrag", "NBU"},
			LocaleFR: {"Cotisation AANP", "AANP"},
			LocaleIT: {"Contributo AINP", "AINP"},
		},
	},
	{
		Field:  FieldSickness,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"DSA contribution", "Daily sickness allowance"},
			LocaleDE: {"KTG-Beitrag", "KTG Beitrag", "KTG"},
			LocaleFR: {"Cotisation IJM", "IJM"},
			LocaleIT: {"Contributo IGM", "IGM"},
		},
	},
	{
		Field:  FieldNetPay,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Net salary", "Net pay"},
			LocaleDE: {"Nettolohn"},
			LocaleFR: {"Salaire net"},
			LocaleIT: {"Salario netto", "Stipendio netto"},
		},
	},
	{
		Field:  FieldStockIncome,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Stock Award"},
			LocaleDE: {"Aktienzuteilung"},
			LocaleFR: {"Attribution d'actions", "Attribution d’actions"},
			LocaleIT: {"Assegnazione di azioni"},
		},
	},
	{
		Field:  FieldBaseSalary,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Monthly wage", "Monthly salary"},
			LocaleDE: {"Monatslohn"},
			LocaleFR: {"Salaire mensuel"},
			LocaleIT: {"Salario mensile", "Stipendio mensile"},
		},
	},
	{
		Field:  FieldSIExemptAllowances,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Child and education allowances"},
			LocaleDE: {"Kinder- und Ausbildungszulagen", "Kinderzulagen"},
			LocaleFR: {"Allocations familiales"},
			LocaleIT: {"Assegni familiari"},
		},
	},
	{
		Field:  FieldBonus,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Bonus"},
			LocaleDE: {"Bonuszahlung"},
			LocaleFR: {"Gratification"},
			LocaleIT: {"Gratifica"},
		},
	},
	{
		Field:  FieldESPPContribution,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"ESPP"},
		},
	},
	{
		Field:  FieldESPPRate,
		Column: columnLast,
		Rate:   true,
		Labels: map[Locale][]string{
			LocaleEN: {"ESPP"},
		},
	},
	{
		Field:  FieldStockSocialSecurityWithheld,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Already settled social security"},
			LocaleDE: {"Bereits abgerechnete Sozialversicherung"},
			LocaleFR: {"Cotisations sociales déjà réglées"},
			LocaleIT: {"Contributi sociali già regolati"},
		},
	},
	{
		Field:  FieldBalanceForward,
		Column: columnLast,
		Labels: map[Locale][]string{
			LocaleEN: {"Balance forward"},
			LocaleDE: {"Saldovortrag"},
			LocaleFR: {"Report de solde"},
			LocaleIT: {"Riporto saldo"},
		},
	},
}

// periodLabels precede the pay month ("Lohnperiode 12.2023").
var periodLabels = map[Locale][]string{
	LocaleEN: {"Pay period", "Payroll period", "Period"},
	LocaleDE: {"Lohnperiode", "Abrechnungsperiode", "Periode"},
	LocaleFR: {"Période de paie", "Période"},
	LocaleIT: {"Periodo di paga", "Periodo"},
}

// compiledRule holds the folded label patterns of one rule.
type compiledRule struct {
	labelRule
	patterns []*regexp.Regexp
}

var compiledTable = compileTable()

func compileTable() []compiledRule {
	rules := make([]compiledRule, 0, len(labelTable))
	for _, rule := range labelTable {
		rules = append(rules, compiledRule{labelRule: rule, patterns: compileLabels(rule.Labels)})
	}
	return rules
}

func compileLabels(labels map[Locale][]string) []*regexp.Regexp {
	var patterns []*regexp.Regexp
	seen := map[string]bool{}
	for _, locale := range []Locale{LocaleEN, LocaleDE, LocaleFR, LocaleIT} {
		for _, label := range labels[locale] {
			folded := utils.Fold(label)
			if seen[folded] {
				continue
			}
			seen[folded] = true
			pattern := `\b` + strings.ReplaceAll(regexp.QuoteMeta(folded), " ", `\s+`)
			if last := folded[len(folded)-1]; isWordByte(last) {
				pattern += `\b`
			}
			patterns = append(patterns, regexp.MustCompile(pattern))
		}
	}
	return patterns
}

func isWordByte(b byte) bool {
	return b == '_' || isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func ruleFor(field FieldName) compiledRule {
	for _, rule := range compiledTable {
		if rule.Field == field {
			return rule
		}
	}
	panic("payslip: no label rule for " + string(field))
}
