package qst

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/payslip-verifier/utils"
)

var (
	// ErrNoBracket is returned when no bracket of the code contains the income.
	ErrNoBracket = errors.New("no tariff bracket for income")
	// ErrAnnualModel is returned for cantons that settle withholding tax yearly.
	ErrAnnualModel = errors.New("canton uses the annual withholding tax model")
)

var annualModelCantons = map[string]bool{
	"FR": true, "GE": true, "TI": true, "VD": true, "VS": true,
}

// HasAnnualModel reports whether canton computes withholding tax on an
// annual basis, where a monthly table lookup is only an approximation.
func HasAnnualModel(canton string) bool {
	return annualModelCantons[strings.ToUpper(canton)]
}

// FileName returns the ESTV file name for a year and canton, e.g. tar23zh.txt.
func FileName(year int, canton string) string {
	return fmt.Sprintf("tar%02d%s.txt", year%100, strings.ToLower(canton))
}

// Table is the content of one canton's tariff file.
type Table struct {
	Header  Header
	Tariffs []Tariff
}

// ParseTable reads an ESTV tariff file. Records other than the header and
// progressive tariffs are skipped.
func ParseTable(r io.Reader) (*Table, error) {
	table := &Table{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) < 2 {
			continue
		}
		switch recordType(line) {
		case RecordHeader:
			h, err := parseHeader(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			table.Header = h
		case RecordProgressive:
			t, err := parseTariff(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			table.Tariffs = append(table.Tariffs, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tariff file: %w", err)
	}
	return table, nil
}

// Calculate returns the monthly withholding tax for a tariff code and a
// monthly gross income.
func (t *Table) Calculate(code string, income decimal.Decimal) (decimal.Decimal, error) {
	if !IsSupported(code) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnsupportedCode, code)
	}
	for _, tariff := range t.Tariffs {
		if tariff.Code != code || !tariff.Contains(income) {
			continue
		}
		tax := decimal.Max(tariff.Rate.Mul(income), tariff.MinimumTax)
		return utils.Round05(tax), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s %s", ErrNoBracket, code, income.StringFixed(2))
}

// Calculator loads tariff files from a directory populated by Download.
type Calculator struct {
	Dir string
}

func NewCalculator(dir string) *Calculator {
	return &Calculator{Dir: dir}
}

// Load opens the tariff file of canton for year.
func (c *Calculator) Load(year int, canton string) (*Table, error) {
	path := filepath.Join(c.Dir, FileName(year, canton))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tariff file: %w", err)
	}
	defer f.Close()

	table, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Calculate looks up the withholding tax for one month. Annual model
// cantons are rejected unless allowAnnual is set.
func (c *Calculator) Calculate(year int, canton, code string, income decimal.Decimal, allowAnnual bool) (decimal.Decimal, error) {
	if HasAnnualModel(canton) && !allowAnnual {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAnnualModel, canton)
	}
	table, err := c.Load(year, canton)
	if err != nil {
		return decimal.Zero, err
	}
	return table.Calculate(code, income)
}
