package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/client"
	"github.com/Aashish23092/payslip-verifier/config"
	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/qst"
	"github.com/Aashish23092/payslip-verifier/rates"
	"github.com/Aashish23092/payslip-verifier/report"
	"github.com/Aashish23092/payslip-verifier/service"
)

type verifyOptions struct {
	birthYear           int
	withholdingTax      bool
	pensionContribution string
	baseSalary          string
	stockPayslipPath    string
	password            string
	stockPassword       string
	tolerance           string
	qstDir              string
	ratesFile           string
	format              string
	xlsxPath            string
}

var verifyOpts verifyOptions

// newPDFProcessor is replaced in tests.
var newPDFProcessor = service.NewPDFProcessor

var verifyCmd = &cobra.Command{
	Use:   "verify <payslip.pdf>",
	Short: "Verify a payslip and print the findings",
	Long: `Verify extracts the regular payslip and the optional stock payslip, runs all
checks and prints the findings grouped by severity.

Exit status is 0 without Error findings, 1 with Error findings and 2 when a
document cannot be read or a required field cannot be extracted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd.Context(), cmd.OutOrStdout(), args[0], verifyOpts)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	f := verifyCmd.Flags()
	f.IntVar(&verifyOpts.birthYear, "birth_year", 0, "Employee birth year (required)")
	f.BoolVar(&verifyOpts.withholdingTax, "withholding_tax", false, "The employee is subject to withholding tax")
	f.StringVar(&verifyOpts.pensionContribution, "pension_contribution", "", "Expected monthly BVG contribution in CHF")
	f.StringVar(&verifyOpts.baseSalary, "base-salary", "", "Expected annual base salary in CHF")
	f.StringVar(&verifyOpts.stockPayslipPath, "stock_payslip_path", "", "Path to the stock-compensation payslip PDF")
	f.StringVar(&verifyOpts.password, "password", "", "Password of the payslip PDF")
	f.StringVar(&verifyOpts.stockPassword, "stock-password", "", "Password of the stock payslip PDF (defaults to --password)")
	f.StringVar(&verifyOpts.tolerance, "tolerance", "", "Rounding tolerance in CHF (default from config)")
	f.StringVar(&verifyOpts.qstDir, "qst-dir", "", "Directory with ESTV withholding tax tariff files")
	f.StringVar(&verifyOpts.ratesFile, "rates", "", "YAML file overriding the built-in statutory rates")
	f.StringVarP(&verifyOpts.format, "format", "f", "text", "Report format: text or json")
	f.StringVar(&verifyOpts.xlsxPath, "xlsx", "", "Also write the report to this XLSX file")
	_ = verifyCmd.MarkFlagRequired("birth_year")
}

func runVerify(ctx context.Context, out io.Writer, payslipPath string, opts verifyOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return &exitError{code: exitFailure, err: fmt.Errorf("unknown format %q, want text or json", opts.format)}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.qstDir != "" {
		cfg.QSTDir = opts.qstDir
	}
	if opts.ratesFile != "" {
		cfg.RatesFile = opts.ratesFile
	}

	vctx, err := opts.validationContext(cfg.Tolerance)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	logger, err := newLogger()
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("failed to create logger: %w", err)}
	}
	defer logger.Sync()

	svc, closeFn, err := newPayslipService(cfg, logger)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	defer closeFn()

	regular, err := readDocument(payslipPath, opts.password)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	var stock *service.Document
	if opts.stockPayslipPath != "" {
		password := opts.stockPassword
		if password == "" {
			password = opts.password
		}
		doc, err := readDocument(opts.stockPayslipPath, password)
		if err != nil {
			return &exitError{code: exitFailure, err: err}
		}
		stock = &doc
	}

	result, err := svc.Verify(ctx, regular, stock, vctx)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	switch opts.format {
	case "json":
		err = report.WriteJSON(out, result)
	default:
		err = report.WriteText(out, result)
	}
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	if opts.xlsxPath != "" {
		if err := report.SaveXLSX(opts.xlsxPath, result); err != nil {
			return &exitError{code: exitFailure, err: err}
		}
		logger.Info("xlsx report written", zap.String("path", opts.xlsxPath))
	}

	if result.HasErrors() {
		return &exitError{code: exitFindings}
	}
	return nil
}

// validationContext builds the run expectations; an empty --tolerance keeps
// the configured one.
func (o verifyOptions) validationContext(tolerance decimal.Decimal) (dto.ValidationContext, error) {
	if o.tolerance != "" {
		t, err := decimal.NewFromString(o.tolerance)
		if err != nil || t.IsNegative() {
			return dto.ValidationContext{}, fmt.Errorf("invalid tolerance %q", o.tolerance)
		}
		tolerance = t
	}
	request := dto.PayslipVerificationRequest{
		BirthYear:           o.birthYear,
		WithholdingTax:      o.withholdingTax,
		PensionContribution: o.pensionContribution,
		BaseSalary:          o.baseSalary,
	}
	if o.birthYear < 1900 || o.birthYear > 2100 {
		return dto.ValidationContext{}, fmt.Errorf("--birth_year must be a four digit year, got %d", o.birthYear)
	}
	return request.ValidationContext(tolerance)
}

// newPayslipService wires the extraction and validation pipeline from cfg.
// The returned function releases the OCR client.
func newPayslipService(cfg *config.Config, logger *zap.Logger) (*service.PayslipService, func(), error) {
	table := rates.Default()
	if cfg.RatesFile != "" {
		loaded, err := rates.Load(cfg.RatesFile)
		if err != nil {
			return nil, nil, err
		}
		table = loaded
	}

	var tariffs *qst.Calculator
	if cfg.QSTDir != "" {
		tariffs = qst.NewCalculator(cfg.QSTDir)
	}

	ocr := newRecognizer(cfg, logger)
	validator := service.NewValidationService(table, tariffs, cfg.StockWithholdingTolerance, logger)
	svc := service.NewPayslipService(newPDFProcessor(), ocr, validator, cfg.MinTextLength, logger)
	return svc, ocr.Close, nil
}

type recognizer interface {
	service.TextRecognizer
	Close()
}

func newRecognizer(cfg *config.Config, logger *zap.Logger) recognizer {
	if cfg.OCRBackend == config.OCRBackendPaddle {
		return client.NewPaddleClient(cfg.PaddleURL, logger)
	}
	return client.NewTesseractClient(cfg.TesseractDataPath, cfg.OCRLanguages, logger)
}

func readDocument(path, password string) (service.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return service.Document{}, fmt.Errorf("failed to read payslip: %w", err)
	}
	return service.Document{Name: filepath.Base(path), Data: data, Password: password}, nil
}
