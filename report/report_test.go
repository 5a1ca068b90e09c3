package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Aashish23092/payslip-verifier/dto"
)

func sampleReport() *dto.Report {
	return &dto.Report{
		RunID:       "7c3b8a52-0a47-4d1e-9a53-3d1c2f1a9b10",
		GeneratedAt: time.Date(2023, 11, 25, 8, 0, 0, 0, time.UTC),
		Records: []dto.FieldRecord{{
			DocumentKind:        dto.DocumentRegular,
			SourceName:          "nov.pdf",
			Period:              dto.Period{Year: 2023, Month: time.November},
			GrossSalary:         decimal.NewFromInt(8000),
			PensionContribution: decimal.NewFromInt(300),
			SocialInsuranceDeductions: map[string]decimal.Decimal{
				dto.DeductionOASI: decimal.NewFromInt(424),
			},
			WithholdingTax: dto.Amount(decimal.NewFromInt(1200)),
			NetPay:         decimal.NewFromInt(6700),
		}},
		Findings: []dto.Finding{
			{CheckID: dto.CheckPeriodConsistency, Severity: dto.SeverityInfo, Message: "periods match (2023-11)"},
			{CheckID: dto.CheckNetPay, Severity: dto.SeverityError, Message: "net pay: expected CHF 6'800.00, payslip states CHF 6'700.00", Expected: "6800.00", Actual: "6700.00"},
			{CheckID: dto.CheckAccidentInsurance, Severity: dto.SeverityWarning, Message: "no accident insurance deduction found"},
		},
	}
}

func TestWriteTextGroupsBySeverity(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport()))
	out := buf.String()

	errorsAt := strings.Index(out, "Errors (1)")
	warningsAt := strings.Index(out, "Warnings (1)")
	infoAt := strings.Index(out, "Info (1)")
	require.NotEqual(t, -1, errorsAt)
	require.NotEqual(t, -1, warningsAt)
	require.NotEqual(t, -1, infoAt)
	assert.Less(t, errorsAt, warningsAt)
	assert.Less(t, warningsAt, infoAt)

	assert.Contains(t, out, "[net_pay] net pay: expected CHF 6'800.00")
	assert.Contains(t, out, "gross CHF 8'000.00")
	assert.True(t, strings.HasSuffix(out, "FAILED: 1 error(s), 1 warning(s), 1 info\n"))
}

func TestWriteTextOmitsEmptyGroups(t *testing.T) {
	r := sampleReport()
	r.Findings = nil

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))
	assert.NotContains(t, buf.String(), "Errors")
	assert.Contains(t, buf.String(), "PASSED: 0 error(s), 0 warning(s), 0 info")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	var got struct {
		RunID    string `json:"run_id"`
		Passed   bool   `json:"passed"`
		Summary  Counts `json:"summary"`
		Findings []struct {
			CheckID  string `json:"check_id"`
			Severity string `json:"severity"`
			Expected string `json:"expected_value"`
		} `json:"findings"`
		Records []struct {
			Period      string `json:"period"`
			GrossSalary string `json:"gross_salary"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "7c3b8a52-0a47-4d1e-9a53-3d1c2f1a9b10", got.RunID)
	assert.False(t, got.Passed)
	assert.Equal(t, Counts{Errors: 1, Warnings: 1, Info: 1}, got.Summary)
	require.Len(t, got.Findings, 3)
	assert.Equal(t, "net_pay", got.Findings[1].CheckID)
	assert.Equal(t, "error", got.Findings[1].Severity)
	assert.Equal(t, "6800.00", got.Findings[1].Expected)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "2023-11", got.Records[0].Period)
	assert.Equal(t, "8000", got.Records[0].GrossSalary)
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, SaveXLSX(path, sampleReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{findingsSheet, recordsSheet}, f.GetSheetList())

	rows, err := f.GetRows(findingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, findingHeaders, rows[0])
	assert.Equal(t, "error", rows[1][0])
	assert.Equal(t, "net_pay", rows[1][1])
	assert.Equal(t, "6800", rows[1][3])
	assert.Equal(t, "warning", rows[2][0])
	assert.Equal(t, "info", rows[3][0])

	source, err := f.GetCellValue(recordsSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "nov.pdf", source)
	period, err := f.GetCellValue(recordsSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "2023-11", period)
	oasi, err := f.GetCellValue(recordsSheet, "H2")
	require.NoError(t, err)
	assert.Equal(t, "424", oasi)
	ui, err := f.GetCellValue(recordsSheet, "I2")
	require.NoError(t, err)
	assert.Empty(t, ui)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(recordsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
