// Package validate is the read-only QC gate over the canonical tables. Every
// check runs to completion and every violation is collected; nothing here
// mutates data or stops at the first error.
package validate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tervyx/claimlens/internal/logger"
)

// Claims columns that must be non-empty on every row.
var requiredClaimFields = []string{"page_sha256", "claim_sha256"}

// Violation is one recorded check failure. Row indexes are 1-based over data
// rows (the header is row 0 and never flagged).
type Violation struct {
	Table   string
	Row     int
	Check   string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s row %d [%s]: %s", v.Table, v.Row, v.Check, v.Message)
}

// Report aggregates every violation of a run.
type Report struct {
	Violations []Violation
}

// Pass reports whether the run is clean.
func (r *Report) Pass() bool {
	return len(r.Violations) == 0
}

func (r *Report) add(table string, row int, check, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Table:   table,
		Row:     row,
		Check:   check,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validator checks schema conformance and pipeline-wide invariants.
type Validator struct {
	productSchema *jsonschema.Schema
	claimsSchema  *jsonschema.Schema
	log           *logger.Logger
}

// New compiles the two table schemas from the schema directory. A missing or
// malformed schema is a fatal configuration error.
func New(schemaDir string, log *logger.Logger) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	productSchema, err := compiler.Compile(filepath.Join(schemaDir, "product_info.schema.json"))
	if err != nil {
		return nil, fmt.Errorf("compile product schema: %w", err)
	}
	claimsSchema, err := compiler.Compile(filepath.Join(schemaDir, "claims.schema.json"))
	if err != nil {
		return nil, fmt.Errorf("compile claims schema: %w", err)
	}

	return &Validator{
		productSchema: productSchema,
		claimsSchema:  claimsSchema,
		log:           log,
	}, nil
}

type table struct {
	name   string
	header []string
	rows   [][]string
}

func (t *table) column(name string) int {
	for i, c := range t.header {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *table) cell(row []string, name string) string {
	i := t.column(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func readCSVTable(path, name string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	t := &table{name: name, header: header}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// Run validates both tables and returns the aggregated report. An error means
// the tables could not be read at all, not that checks failed.
func (v *Validator) Run(productPath, claimsPath string) (*Report, error) {
	products, err := readCSVTable(productPath, "product_info")
	if err != nil {
		return nil, err
	}
	claims, err := readCSVTable(claimsPath, "claims")
	if err != nil {
		return nil, err
	}

	report := &Report{}
	v.checkSchema(report, products, v.productSchema)
	v.checkSchema(report, claims, v.claimsSchema)
	v.checkTemperature(report, claims)
	v.checkRequiredFields(report, claims)
	v.checkReferences(report, products, claims)
	v.checkAggregates(report, products, claims)

	if report.Pass() {
		v.log.Info("validation passed",
			"products", len(products.rows), "claims", len(claims.rows))
	} else {
		v.log.Error("validation failed", "violations", len(report.Violations))
	}
	return report, nil
}

// checkSchema validates every coerced row; all rows are checked even after
// failures.
func (v *Validator) checkSchema(report *Report, t *table, schema *jsonschema.Schema) {
	for i, row := range t.rows {
		coerced := coerceRow(t.header, row)
		if err := schema.Validate(coerced); err != nil {
			report.add(t.name, i+1, "schema", "%v", err)
		}
	}
}

// checkTemperature enforces the determinism contract: every claim row's
// extraction_temperature must be exactly 0. One violation anywhere fails the
// run; it is never auto-corrected.
func (v *Validator) checkTemperature(report *Report, claims *table) {
	for i, row := range claims.rows {
		cell := claims.cell(row, "extraction_temperature")
		temp, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			report.add(claims.name, i+1, "temperature", "extraction_temperature %q is not numeric", cell)
			continue
		}
		if temp != 0 {
			report.add(claims.name, i+1, "temperature", "extraction_temperature=%v (MUST be 0)", temp)
		}
	}
}

func (v *Validator) checkRequiredFields(report *Report, claims *table) {
	for i, row := range claims.rows {
		for _, field := range requiredClaimFields {
			if claims.cell(row, field) == "" {
				report.add(claims.name, i+1, "required", "missing required field %q", field)
			}
		}
	}
}

// checkReferences verifies every claim's asin exists in the product table.
func (v *Validator) checkReferences(report *Report, products, claims *table) {
	known := make(map[string]bool, len(products.rows))
	for _, row := range products.rows {
		known[products.cell(row, "asin")] = true
	}
	for i, row := range claims.rows {
		if asin := claims.cell(row, "asin"); !known[asin] {
			report.add(claims.name, i+1, "reference", "asin %q has no product row", asin)
		}
	}
}

// checkAggregates recomputes the per-product folds from the claims table and
// compares them to the stored product columns.
func (v *Validator) checkAggregates(report *Report, products, claims *table) {
	type fold struct {
		phi, k bool
		lMax   int
	}
	folds := make(map[string]*fold)

	for _, row := range claims.rows {
		asin := claims.cell(row, "asin")
		f := folds[asin]
		if f == nil {
			f = &fold{}
			folds[asin] = f
		}
		if ids := claims.cell(row, "phi_hint_ids"); ids != "" && ids != "[]" {
			f.phi = true
		}
		if ids := claims.cell(row, "k_hint_ids"); ids != "" && ids != "[]" {
			f.k = true
		}
		if score, err := strconv.Atoi(claims.cell(row, "l_token_score")); err == nil && score > f.lMax {
			f.lMax = score
		}
	}

	for i, row := range products.rows {
		asin := products.cell(row, "asin")
		f := folds[asin]
		if f == nil {
			f = &fold{}
		}
		if got := products.cell(row, "phi_any_candidate"); got != boolString(f.phi) {
			report.add(products.name, i+1, "aggregate", "phi_any_candidate=%s, claims fold says %s", got, boolString(f.phi))
		}
		if got := products.cell(row, "k_any_candidate"); got != boolString(f.k) {
			report.add(products.name, i+1, "aggregate", "k_any_candidate=%s, claims fold says %s", got, boolString(f.k))
		}
		if got := products.cell(row, "l_max_token_score"); got != strconv.Itoa(f.lMax) {
			report.add(products.name, i+1, "aggregate", "l_max_token_score=%s, claims fold says %d", got, f.lMax)
		}
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Sorted returns violations ordered by table, row, then check, for stable
// operator output.
func (r *Report) Sorted() []Violation {
	out := make([]Violation, len(r.Violations))
	copy(out, r.Violations)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Check < out[j].Check
	})
	return out
}
