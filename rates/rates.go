// Package rates holds the yearly Swiss social insurance parameters used by
// the payslip checks.
package rates

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed rates.yaml
var defaultRates []byte

//go:embed rates.schema.json
var schemaJSON []byte

// ErrNoRates is returned when the table has no entry for a year.
var ErrNoRates = errors.New("no reference rates for year")

// YearRates are the parameters in force for one calendar year. Rates are
// employee shares expressed as fractions, amounts are annual CHF.
type YearRates struct {
	Year                      int              `yaml:"year"`
	OASIRate                  decimal.Decimal  `yaml:"oasi_rate"`
	UIRate                    decimal.Decimal  `yaml:"ui_rate"`
	UIMaxInsuredSalary        decimal.Decimal  `yaml:"ui_max_insured_salary"`
	SUIRate                   decimal.Decimal  `yaml:"sui_rate"`
	BVGEntryThreshold         decimal.Decimal  `yaml:"bvg_entry_threshold"`
	CoordinationDeduction     decimal.Decimal  `yaml:"coordination_deduction"`
	BVGUpperLimit             decimal.Decimal  `yaml:"bvg_upper_limit"`
	MinCoordinatedSalary      decimal.Decimal  `yaml:"min_coordinated_salary"`
	StockAwardWithholdingRate *decimal.Decimal `yaml:"stock_award_withholding_rate,omitempty"`
}

type document struct {
	Years []YearRates `yaml:"years"`
}

// Table is a read-only set of YearRates keyed by year.
type Table struct {
	years map[int]YearRates
}

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rates.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("rates: add schema: %v", err))
	}
	schema, err := compiler.Compile("rates.schema.json")
	if err != nil {
		panic(fmt.Sprintf("rates: compile schema: %v", err))
	}
	return schema
}

// Default returns the table shipped with the binary.
func Default() *Table {
	t, err := Parse(defaultRates)
	if err != nil {
		panic(fmt.Sprintf("rates: embedded table: %v", err))
	}
	return t
}

// Load reads a rate table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse validates data against the rates schema and decodes it.
func Parse(data []byte) (*Table, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode rates: %w", err)
	}
	t := &Table{years: make(map[int]YearRates, len(doc.Years))}
	for _, y := range doc.Years {
		if _, dup := t.years[y.Year]; dup {
			return nil, fmt.Errorf("duplicate rates for year %d", y.Year)
		}
		t.years[y.Year] = y
	}
	return t, nil
}

// validate checks the YAML document against the JSON schema. The document is
// round-tripped through JSON so that the validator sees JSON types.
func validate(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode rates: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal rates: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("rates do not match schema: %w", err)
	}
	return nil
}

// ForYear returns the rates for year or ErrNoRates.
func (t *Table) ForYear(year int) (YearRates, error) {
	r, ok := t.years[year]
	if !ok {
		return YearRates{}, fmt.Errorf("%w %d", ErrNoRates, year)
	}
	return r, nil
}

// Years lists the covered years in ascending order.
func (t *Table) Years() []int {
	years := make([]int, 0, len(t.years))
	for y := range t.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
