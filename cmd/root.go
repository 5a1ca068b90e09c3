// Package cmd implements the payslip-verify command line.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/config"
)

const (
	exitOK       = 0
	exitFindings = 1
	exitFailure  = 2
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "payslip-verify",
	Short: "Verify Swiss payslips against statutory deduction rules",
	Long: `payslip-verify extracts the figures of a Swiss payslip PDF (and an optional
stock-compensation payslip) and checks them against social insurance, BVG and
withholding tax rules.

Example Usage:
  payslip-verify verify nov.pdf --birth_year=1990
  payslip-verify verify nov.pdf --birth_year=1990 --stock_payslip_path=rsu.pdf --format=json
  payslip-verify serve --config ./config.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// exitCode maps a command error to the process exit code. Errors without an
// explicit code are failures.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitFailure
}

// Execute runs the root command and exits with its status.
func Execute() {
	err := rootCmd.Execute()
	var exitErr *exitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.err == nil) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger returns a development logger in verbose mode and a production
// logger otherwise. Both write to stderr.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadConfig reads the --config file, or the defaults when none is given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, &exitError{code: exitFailure, err: err}
	}
	return cfg, nil
}
