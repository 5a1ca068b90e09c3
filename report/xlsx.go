package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Aashish23092/payslip-verifier/dto"
)

const (
	findingsSheet = "Findings"
	recordsSheet  = "Records"
)

var findingHeaders = []string{"Severity", "Check", "Message", "Expected (CHF)", "Actual (CHF)"}

var recordHeaders = []string{
	"Document", "Kind", "Period", "Gross salary", "Base salary", "Pension",
	"Withholding tax", "OASI", "UI", "SUI", "Accident", "Sickness",
	"Stock income", "Stock SS withheld", "ESPP", "Balance forward", "Net pay",
}

// BuildWorkbook lays the report out on two sheets: findings grouped by
// severity and the extracted records.
func BuildWorkbook(r *dto.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", findingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(recordsSheet); err != nil {
		return nil, err
	}
	index, _ := f.GetSheetIndex(findingsSheet)
	f.SetActiveSheet(index)

	writeHeaders(f, findingsSheet, findingHeaders)
	row := 2
	for _, severity := range severityOrder {
		for _, finding := range r.BySeverity(severity) {
			writeRow(f, findingsSheet, row, severity.String(), string(finding.CheckID), finding.Message,
				cellAmount(finding.Expected), cellAmount(finding.Actual))
			row++
		}
	}
	_ = f.SetColWidth(findingsSheet, "A", "A", 10)
	_ = f.SetColWidth(findingsSheet, "B", "B", 32)
	_ = f.SetColWidth(findingsSheet, "C", "C", 80)
	_ = f.SetColWidth(findingsSheet, "D", "E", 16)

	writeHeaders(f, recordsSheet, recordHeaders)
	for i, rec := range r.Records {
		writeRow(f, recordsSheet, i+2,
			rec.SourceName,
			string(rec.DocumentKind),
			rec.Period.String(),
			rec.GrossSalary.InexactFloat64(),
			optional(rec.BaseSalary),
			rec.PensionContribution.InexactFloat64(),
			optional(rec.WithholdingTax),
			socialInsurance(rec, dto.DeductionOASI),
			socialInsurance(rec, dto.DeductionUI),
			socialInsurance(rec, dto.DeductionSUI),
			socialInsurance(rec, dto.DeductionAccident),
			socialInsurance(rec, dto.DeductionSickness),
			optional(rec.StockIncome),
			optional(rec.StockSocialSecurityWithheld),
			optional(rec.ESPPContribution),
			optional(rec.BalanceForward),
			rec.NetPay.InexactFloat64(),
		)
	}
	_ = f.SetColWidth(recordsSheet, "A", "A", 24)
	_ = f.SetColWidth(recordsSheet, "D", "Q", 14)

	return f, nil
}

// WriteXLSX writes the workbook for r to w.
func WriteXLSX(w io.Writer, r *dto.Report) error {
	f, err := BuildWorkbook(r)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook for r to path.
func SaveXLSX(path string, r *dto.Report) error {
	f, err := BuildWorkbook(r)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// cellAmount stores a finding amount as a number when it parses, the raw
// text otherwise.
func cellAmount(s string) any {
	if s == "" {
		return ""
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.InexactFloat64()
}

func optional(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func socialInsurance(r dto.FieldRecord, name string) any {
	if !r.HasSocialInsurance(name) {
		return ""
	}
	return r.SocialInsurance(name).InexactFloat64()
}
