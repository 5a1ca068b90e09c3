package payslip

import (
	"errors"
	"fmt"
	"strings"
)

// Reasons an extraction can fail. Match them with errors.Is.
var (
	ErrFieldNotFound    = errors.New("field not found")
	ErrAmbiguousMatch   = errors.New("ambiguous match")
	ErrUnparsableNumber = errors.New("unparsable number")
)

// ErrKindMismatch is an ambiguous match where the document content
// contradicts the kind it was loaded as.
var ErrKindMismatch = fmt.Errorf("%w: document kind mismatch", ErrAmbiguousMatch)

// ExtractionError names the field a document could not be parsed for.
type ExtractionError struct {
	Reason     error
	Field      FieldName
	Document   string
	Candidates []string
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	if e.Document != "" {
		fmt.Fprintf(&b, "%s: ", e.Document)
	}
	fmt.Fprintf(&b, "%s: %v", e.Field, e.Reason)
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Candidates, ", "))
	}
	return b.String()
}

func (e *ExtractionError) Unwrap() error {
	return e.Reason
}
