package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/qst"
)

var (
	qstYear         int
	qstDir          string
	qstMarried      bool
	qstSingleEarner bool
	qstChildren     int
	qstChurch       bool
)

var qstCmd = &cobra.Command{
	Use:   "qst",
	Short: "Withholding tax (Quellensteuer) tariff utilities",
}

var qstDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and unpack the ESTV tariff files of a year",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()

		files, err := qst.NewDownloader(logger).Download(cmd.Context(), qstYear, qstDir)
		if err != nil {
			return err
		}
		logger.Info("tariff files written", zap.Int("files", len(files)), zap.String("dir", qstDir))
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

var qstExplainCmd = &cobra.Command{
	Use:   "explain <code>",
	Short: "Describe a tariff code such as A0N or C2Y",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := qst.Explain(strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var qstCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Build the tariff code for a household",
	RunE: func(cmd *cobra.Command, args []string) error {
		if qstChildren < 0 || qstChildren > 9 {
			return fmt.Errorf("--children must be between 0 and 9, got %d", qstChildren)
		}
		fmt.Fprintln(cmd.OutOrStdout(), qst.BuildCode(qstMarried, qstSingleEarner, qstChildren, qstChurch))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qstCmd)
	qstCmd.AddCommand(qstDownloadCmd, qstExplainCmd, qstCodeCmd)

	qstDownloadCmd.Flags().IntVar(&qstYear, "year", time.Now().Year(), "Tariff year")
	qstDownloadCmd.Flags().StringVar(&qstDir, "dir", "qst", "Target directory")

	qstCodeCmd.Flags().BoolVar(&qstMarried, "married", false, "Married or registered partnership")
	qstCodeCmd.Flags().BoolVar(&qstSingleEarner, "single-earner", true, "Spouse has no income")
	qstCodeCmd.Flags().IntVar(&qstChildren, "children", 0, "Number of children")
	qstCodeCmd.Flags().BoolVar(&qstChurch, "church", false, "Subject to church tax")
}
