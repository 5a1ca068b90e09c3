// Package qst reads the ESTV withholding tax (Quellensteuer) tariff files and
// computes the monthly withholding tax for a tariff code.
package qst

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// Record types of the ESTV tariff file format.
const (
	RecordHeader      = "00"
	RecordProgressive = "06"
)

var (
	hundred      = decimal.NewFromInt(100)
	tenThousands = decimal.NewFromInt(10000)
)

// Header is the leading record of a tariff file.
type Header struct {
	Canton  string
	Created time.Time
	Text    string
}

// Tariff is one progressive tariff bracket: incomes from IncomeFrom up to
// IncomeFrom+Step are taxed at Rate, but at least MinimumTax.
type Tariff struct {
	Transaction string
	Canton      string
	Code        string
	ValidFrom   time.Time
	IncomeFrom  decimal.Decimal
	Step        decimal.Decimal
	Children    int
	MinimumTax  decimal.Decimal
	Rate        decimal.Decimal
}

// Contains reports whether income falls into the bracket.
func (t Tariff) Contains(income decimal.Decimal) bool {
	return t.IncomeFrom.LessThanOrEqual(income) && income.LessThanOrEqual(t.IncomeFrom.Add(t.Step))
}

// column cuts the 1-based inclusive range [from, to] out of a raw record.
// Short lines yield the part that exists.
func column(line []byte, from, to int) string {
	if from > len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(string(line[from-1 : to]))
}

// latin1 decodes free text columns; the files are ISO-8859-1.
func latin1(s string) string {
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}

func recordType(line []byte) string {
	return column(line, 1, 2)
}

func parseHeader(line []byte) (Header, error) {
	if recordType(line) != RecordHeader {
		return Header{}, fmt.Errorf("not a header record: %q", column(line, 1, 2))
	}
	h := Header{
		Canton: column(line, 3, 4),
		Text:   strings.TrimSpace(latin1(column(line, 28, 67) + " " + column(line, 68, 107))),
	}
	if created := column(line, 20, 27); created != "" {
		t, err := time.Parse("20060102", created)
		if err != nil {
			return Header{}, fmt.Errorf("invalid creation date %q: %w", created, err)
		}
		h.Created = t
	}
	return h, nil
}

// scaled parses a zero padded integer column divided by div.
func scaled(s string, div decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Div(div), nil
}

func parseTariff(line []byte) (Tariff, error) {
	if recordType(line) != RecordProgressive {
		return Tariff{}, fmt.Errorf("not a progressive tariff record: %q", recordType(line))
	}
	t := Tariff{
		Transaction: column(line, 3, 4),
		Canton:      column(line, 5, 6),
		Code:        column(line, 7, 16),
	}

	validFrom, err := time.Parse("20060102", column(line, 17, 24))
	if err != nil {
		return Tariff{}, fmt.Errorf("invalid valid-from date: %w", err)
	}
	t.ValidFrom = validFrom

	if t.IncomeFrom, err = scaled(column(line, 25, 33), hundred); err != nil {
		return Tariff{}, fmt.Errorf("invalid income threshold: %w", err)
	}
	if t.Step, err = scaled(column(line, 34, 42), hundred); err != nil {
		return Tariff{}, fmt.Errorf("invalid tariff step: %w", err)
	}
	if children := column(line, 44, 45); children != "" {
		if t.Children, err = strconv.Atoi(children); err != nil {
			return Tariff{}, fmt.Errorf("invalid children count: %w", err)
		}
	}
	if t.MinimumTax, err = scaled(column(line, 46, 54), hundred); err != nil {
		return Tariff{}, fmt.Errorf("invalid minimum tax: %w", err)
	}
	if t.Rate, err = scaled(column(line, 55, 59), tenThousands); err != nil {
		return Tariff{}, fmt.Errorf("invalid tax rate: %w", err)
	}
	return t, nil
}
