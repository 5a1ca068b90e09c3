package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/client"
	"github.com/Aashish23092/payslip-verifier/config"
	"github.com/Aashish23092/payslip-verifier/service"
)

const novemberSlip = `
	Pay period 11.2023
	Monthly wage 8'000.00
	Gross salary 8'000.00
	OASI contribution 8'000.00 5.30% -424.00
	UI contribution 8'000.00 1.10% -88.00
	SUVA contribution 8'000.00 0.50% -40.00
	DSA contribution 8'000.00 0.375% -30.00
	PF/LOB contrib. fixed men -300.00
	Net salary 7'118.00
`

// textPDF treats the file content as the text of a single page.
type textPDF struct{}

func (textPDF) ExtractPages(pdfData []byte, password string) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, errors.New("empty pdf")
	}
	return []string{string(pdfData)}, nil
}

func (textPDF) ExtractImages(pdfData []byte, password string) ([]image.Image, error) {
	return nil, nil
}

func useTextPDF(t *testing.T) {
	t.Helper()
	previous := newPDFProcessor
	newPDFProcessor = func() service.PDFProcessor { return textPDF{} }
	t.Cleanup(func() { newPDFProcessor = previous })
}

func writeSlip(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nov.pdf")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFindings, exitCode(&exitError{code: exitFindings}))
	assert.Equal(t, exitFailure, exitCode(&exitError{code: exitFailure, err: errors.New("boom")}))
	assert.Equal(t, exitFailure, exitCode(errors.New("unknown flag")))
}

func TestRunVerifyClean(t *testing.T) {
	useTextPDF(t)
	var out bytes.Buffer

	err := runVerify(context.Background(), &out, writeSlip(t, novemberSlip), verifyOptions{birthYear: 1990, format: "text"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "PASSED: 0 error(s)")
	assert.Contains(t, out.String(), "nov.pdf")
}

func TestRunVerifyErrorFindings(t *testing.T) {
	useTextPDF(t)
	var out bytes.Buffer
	xlsxPath := filepath.Join(t.TempDir(), "report.xlsx")

	err := runVerify(context.Background(), &out, writeSlip(t, novemberSlip), verifyOptions{
		birthYear:  1990,
		baseSalary: "120000",
		format:     "json",
		xlsxPath:   xlsxPath,
	})
	assert.Equal(t, exitFindings, exitCode(err))

	var doc struct {
		Passed   bool `json:"passed"`
		Findings []struct {
			CheckID string `json:"check_id"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.False(t, doc.Passed)
	require.NotEmpty(t, doc.Findings)
	assert.FileExists(t, xlsxPath)
}

func TestRunVerifyExtractionFailure(t *testing.T) {
	useTextPDF(t)
	var out bytes.Buffer

	err := runVerify(context.Background(), &out, writeSlip(t, "Pay period 11.2023\nGross salary 8'000.00\n"), verifyOptions{birthYear: 1990, format: "text"})
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Contains(t, err.Error(), "net_pay")
	assert.Empty(t, out.String())
}

func TestRunVerifyMissingFile(t *testing.T) {
	useTextPDF(t)
	err := runVerify(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.pdf"), verifyOptions{birthYear: 1990, format: "text"})
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestRunVerifyRejectsBadOptions(t *testing.T) {
	useTextPDF(t)
	path := writeSlip(t, novemberSlip)

	tests := []struct {
		name string
		opts verifyOptions
	}{
		{"format", verifyOptions{birthYear: 1990, format: "xml"}},
		{"birth year", verifyOptions{birthYear: 90, format: "text"}},
		{"tolerance", verifyOptions{birthYear: 1990, format: "text", tolerance: "-1"}},
		{"pension", verifyOptions{birthYear: 1990, format: "text", pensionContribution: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runVerify(context.Background(), &bytes.Buffer{}, path, tt.opts)
			assert.Equal(t, exitFailure, exitCode(err))
		})
	}
}

func TestQSTExplainCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"qst", "explain", "b2n"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Married Single-Earner, Children: 2, Church Tax: No\n", out.String())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "Payslip Verifier\n"))
}

func TestNewRecognizerBackend(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &client.TesseractClient{}, newRecognizer(cfg, zap.NewNop()))

	cfg.OCRBackend = config.OCRBackendPaddle
	assert.IsType(t, &client.PaddleClient{}, newRecognizer(cfg, zap.NewNop()))
}
