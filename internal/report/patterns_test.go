package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tervyx/claimlens/internal/logger"
)

func writeClaims(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claims.csv")
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

func TestCollect(t *testing.T) {
	path := writeClaims(t, [][]string{
		{"asin", "phi_hint_ids", "k_hint_ids", "l_tokens"},
		{"B0A", `["disease_claim"]`, "[]", `["proven","clinically"]`},
		{"B0A", `["disease_claim","drug_equiv"]`, `["dosage"]`, `["proven"]`},
		{"B0B", "[]", "[]", "[]"},
	})

	counts, err := Collect(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if counts.Phi["disease_claim"] != 2 || counts.Phi["drug_equiv"] != 1 {
		t.Errorf("Expected phi counts {disease_claim:2 drug_equiv:1}, got %v", counts.Phi)
	}
	if counts.K["dosage"] != 1 {
		t.Errorf("Expected k counts {dosage:1}, got %v", counts.K)
	}
	if counts.L["proven"] != 2 || counts.L["clinically"] != 1 {
		t.Errorf("Expected l counts {proven:2 clinically:1}, got %v", counts.L)
	}
}

func TestWrite_RankedOutput(t *testing.T) {
	counts := &Counts{
		Phi: map[string]int{"disease_claim": 2, "drug_equiv": 1},
		K:   map[string]int{},
		L:   map[string]int{"proven": 2, "clinically": 2, "guaranteed": 5},
	}

	path := filepath.Join(t.TempDir(), "pattern_report.csv")
	if err := Write(path, counts, logger.NewWithWriter(io.Discard, "error")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := [][]string{
		{"gate", "pattern", "count"},
		{"Φ", "disease_claim", "2"},
		{"Φ", "drug_equiv", "1"},
		{"L", "guaranteed", "5"},
		{"L", "clinically", "2"},
		{"L", "proven", "2"},
	}
	if len(rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d: %v", len(want), len(rows), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("Row %d: expected %v, got %v", i, want[i], rows[i])
				break
			}
		}
	}
}
