package dto

import "errors"

// Custom errors
var (
	ErrMissingPayslip = errors.New("payslip file is required")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    int    `json:"code"`
}

// PayslipVerificationResponse is the final response structure
type PayslipVerificationResponse struct {
	Report   *Report `json:"report"`
	Passed   bool    `json:"passed"`
	Errors   int     `json:"errors"`
	Warnings int     `json:"warnings"`
}
