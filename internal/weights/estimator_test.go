package weights

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/logger"
)

func TestStratumWeight(t *testing.T) {
	cases := []struct {
		name             string
		target, observed float64
		want             float64
	}{
		{"exact match", 0.35, 0.35, 1.0},
		{"underrepresented", 0.35, 0.25, 1.4},
		{"overrepresented", 0.30, 0.40, 0.75},
		{"rounded to 4 places", 0.35, 0.30, 1.1667},
		{"absent stratum", 0.35, 0, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StratumWeight(tc.target, tc.observed); got != tc.want {
				t.Errorf("StratumWeight(%v, %v) = %v, want %v", tc.target, tc.observed, got, tc.want)
			}
		})
	}
}

func testPlan() *config.SamplingPlan {
	return &config.SamplingPlan{
		Representative: config.RepresentativePlan{
			TargetN: 100,
			Strata: []config.Stratum{
				{Name: "sleep", Allocation: 0.5},
				{Name: "immunity", Allocation: 0.5},
			},
		},
	}
}

func writeProductTable(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "product_info.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return path
}

func readProductTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return rows
}

func TestEstimator_Apply(t *testing.T) {
	header := []string{"asin", "category_path", "sampling_cohort", "sampling_weight", "product_title"}
	path := writeProductTable(t, [][]string{
		header,
		{"B0A", "sleep", "R", "1.0", "Product A"},
		{"B0B", "sleep", "R", "1.0", "Product B"},
		{"B0C", "sleep", "R", "1.0", "Product C"},
		{"B0D", "immunity", "R", "1.0", "Product D"},
		{"B0E", "nootropics", "T", "", "Product E"},
	})

	est := New(testPlan(), logger.NewWithWriter(io.Discard, "error"))
	if err := est.Apply(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	rows := readProductTable(t, path)

	// sleep observed 3/4 against target 0.5 -> 0.6667
	if got := rows[1][3]; got != "0.6667" {
		t.Errorf("Expected sleep weight 0.6667, got %s", got)
	}
	// immunity observed 1/4 against target 0.5 -> 2.0000
	if got := rows[4][3]; got != "2.0000" {
		t.Errorf("Expected immunity weight 2.0000, got %s", got)
	}
	// T cohort rows are untouched
	if got := rows[5][3]; got != "" {
		t.Errorf("Expected T row weight untouched, got %q", got)
	}
	// Other columns stay byte-identical
	if rows[1][4] != "Product A" || rows[5][0] != "B0E" {
		t.Error("Expected non-weight columns unchanged")
	}
}

func TestEstimator_UndeclaredStratum(t *testing.T) {
	header := []string{"asin", "category_path", "sampling_cohort", "sampling_weight"}
	path := writeProductTable(t, [][]string{
		header,
		{"B0A", "mystery", "R", "1.0"},
	})

	est := New(testPlan(), logger.NewWithWriter(io.Discard, "error"))
	if err := est.Apply(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	rows := readProductTable(t, path)
	if got := rows[1][3]; got != "1.0000" {
		t.Errorf("Expected neutral weight for undeclared stratum, got %s", got)
	}
}
