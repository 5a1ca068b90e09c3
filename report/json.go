package report

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/Aashish23092/payslip-verifier/dto"
)

// Counts summarizes the findings of a run per severity.
type Counts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Document is the JSON form of a report.
type Document struct {
	*dto.Report
	Passed  bool   `json:"passed"`
	Summary Counts `json:"summary"`
}

// NewDocument wraps r with its summary counts.
func NewDocument(r *dto.Report) Document {
	return Document{
		Report: r,
		Passed: !r.HasErrors(),
		Summary: Counts{
			Errors:   r.Count(dto.SeverityError),
			Warnings: r.Count(dto.SeverityWarning),
			Info:     r.Count(dto.SeverityInfo),
		},
	}
}

// WriteJSON encodes the report as indented JSON.
func WriteJSON(w io.Writer, r *dto.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
