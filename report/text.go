// Package report renders verification reports for people and machines.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/utils"
)

// severityOrder is the order in which groups are printed.
var severityOrder = []dto.Severity{dto.SeverityError, dto.SeverityWarning, dto.SeverityInfo}

// WriteText prints the report grouped by severity, findings in check order
// within each group, followed by a summary line.
func WriteText(w io.Writer, r *dto.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Payslip verification %s\n", r.RunID)
	for _, rec := range r.Records {
		fmt.Fprintf(&b, "  %-8s %s  period %s  gross CHF %s  net CHF %s\n",
			rec.DocumentKind, rec.SourceName, rec.Period,
			utils.FormatCHF(rec.GrossSalary), utils.FormatCHF(rec.NetPay))
	}

	for _, severity := range severityOrder {
		findings := r.BySeverity(severity)
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", groupTitle(severity), len(findings))
		for _, f := range findings {
			fmt.Fprintf(&b, "  [%s] %s\n", f.CheckID, f.Message)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", Summary(r))
	_, err := io.WriteString(w, b.String())
	return err
}

// Summary is the one-line outcome of a run.
func Summary(r *dto.Report) string {
	status := "PASSED"
	if r.HasErrors() {
		status = "FAILED"
	}
	return fmt.Sprintf("%s: %d error(s), %d warning(s), %d info",
		status, r.Count(dto.SeverityError), r.Count(dto.SeverityWarning), r.Count(dto.SeverityInfo))
}

func groupTitle(s dto.Severity) string {
	switch s {
	case dto.SeverityError:
		return "Errors"
	case dto.SeverityWarning:
		return "Warnings"
	}
	return "Info"
}
