package validate

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tervyx/claimlens/internal/logger"
)

const testProductSchema = `{
  "type": "object",
  "properties": {
    "asin": {"type": "string", "minLength": 1},
    "sampling_cohort": {"enum": ["R", "T"]},
    "phi_any_candidate": {"type": "boolean"},
    "k_any_candidate": {"type": "boolean"},
    "l_max_token_score": {"type": "integer"}
  },
  "required": ["asin", "sampling_cohort"]
}`

const testClaimsSchema = `{
  "type": "object",
  "properties": {
    "asin": {"type": "string", "minLength": 1},
    "claim_id": {"type": "string"},
    "l_token_score": {"type": "integer"}
  },
  "required": ["asin", "claim_id"]
}`

func writeSchemas(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "product_info.schema.json"), []byte(testProductSchema), 0o644); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "claims.schema.json"), []byte(testClaimsSchema), 0o644); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return dir
}

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

var productHeader = []string{"asin", "sampling_cohort", "phi_any_candidate", "k_any_candidate", "l_max_token_score"}
var claimsHeader = []string{"asin", "claim_id", "extraction_temperature", "claim_sha256", "page_sha256", "phi_hint_ids", "k_hint_ids", "l_token_score"}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(writeSchemas(t), logger.NewWithWriter(io.Discard, "error"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return v
}

func TestValidator_CleanTables(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "product_info.csv")
	claims := filepath.Join(dir, "claims.csv")

	writeCSV(t, products, [][]string{
		productHeader,
		{"B0AAA", "R", "true", "false", "4"},
	})
	writeCSV(t, claims, [][]string{
		claimsHeader,
		{"B0AAA", "B0AAA_c0000", "0", "deadbeef", "cafef00d", `["disease_claim"]`, "[]", "4"},
	})

	report, err := newTestValidator(t).Run(products, claims)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !report.Pass() {
		t.Errorf("Expected clean report, got %v", report.Violations)
	}
}

func TestValidator_TemperatureViolation(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "product_info.csv")
	claims := filepath.Join(dir, "claims.csv")

	writeCSV(t, products, [][]string{
		productHeader,
		{"B0AAA", "R", "false", "false", "0"},
	})
	writeCSV(t, claims, [][]string{
		claimsHeader,
		{"B0AAA", "B0AAA_c0000", "0", "d1", "p1", "[]", "[]", "0"},
		{"B0AAA", "B0AAA_c0001", "0.7", "d2", "p2", "[]", "[]", "0"},
	})

	report, err := newTestValidator(t).Run(products, claims)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	found := false
	for _, v := range report.Violations {
		if v.Check == "temperature" {
			found = true
			// 1-based over data rows
			if v.Row != 2 {
				t.Errorf("Expected violation on row 2, got %d", v.Row)
			}
		}
	}
	if !found {
		t.Error("Expected a temperature violation")
	}
}

func TestValidator_RequiredAndReference(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "product_info.csv")
	claims := filepath.Join(dir, "claims.csv")

	writeCSV(t, products, [][]string{
		productHeader,
		{"B0AAA", "R", "false", "false", "0"},
	})
	writeCSV(t, claims, [][]string{
		claimsHeader,
		{"B0MISSING", "B0MISSING_c0000", "0", "", "p1", "[]", "[]", "0"},
	})

	report, err := newTestValidator(t).Run(products, claims)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	checks := make(map[string]bool)
	for _, v := range report.Violations {
		checks[v.Check] = true
	}
	if !checks["required"] {
		t.Error("Expected a required-field violation for the empty claim_sha256")
	}
	if !checks["reference"] {
		t.Error("Expected a reference violation for the orphan asin")
	}
}

func TestValidator_AggregateMismatch(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "product_info.csv")
	claims := filepath.Join(dir, "claims.csv")

	// Product says no phi candidate, but a claim carries a phi hint
	writeCSV(t, products, [][]string{
		productHeader,
		{"B0AAA", "R", "false", "false", "0"},
	})
	writeCSV(t, claims, [][]string{
		claimsHeader,
		{"B0AAA", "B0AAA_c0000", "0", "d1", "p1", `["disease_claim"]`, "[]", "4"},
	})

	report, err := newTestValidator(t).Run(products, claims)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	aggregates := 0
	for _, v := range report.Violations {
		if v.Check == "aggregate" {
			aggregates++
		}
	}
	// phi_any_candidate and l_max_token_score both disagree
	if aggregates != 2 {
		t.Errorf("Expected 2 aggregate violations, got %d: %v", aggregates, report.Violations)
	}
}

func TestValidator_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "product_info.csv")
	claims := filepath.Join(dir, "claims.csv")

	writeCSV(t, products, [][]string{
		productHeader,
		{"B0AAA", "X", "false", "false", "0"},
	})
	writeCSV(t, claims, [][]string{claimsHeader})

	report, err := newTestValidator(t).Run(products, claims)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	found := false
	for _, v := range report.Violations {
		if v.Table == "product_info" && v.Check == "schema" && v.Row == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a schema violation for cohort X, got %v", report.Violations)
	}
}
