// Package report rolls up matched gate patterns from the claims table, for
// hint-configuration calibration. Read-only over the claims CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/util"
)

// Gate labels used in the report's first column. Downstream calibration
// tooling keys on these exact strings.
const (
	GatePhi = "Φ"
	GateK   = "K"
	GateL   = "L"
)

// Counts holds per-gate pattern frequencies.
type Counts struct {
	Phi map[string]int
	K   map[string]int
	L   map[string]int
}

// Collect streams the claims table and counts every matched hint id and
// L token occurrence.
func Collect(claimsPath string) (*Counts, error) {
	f, err := os.Open(claimsPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", claimsPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", claimsPath, err)
	}
	colPhi := indexOf(header, "phi_hint_ids")
	colK := indexOf(header, "k_hint_ids")
	colL := indexOf(header, "l_tokens")

	counts := &Counts{
		Phi: make(map[string]int),
		K:   make(map[string]int),
		L:   make(map[string]int),
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", claimsPath, err)
		}
		countList(counts.Phi, cell(row, colPhi))
		countList(counts.K, cell(row, colK))
		countList(counts.L, cell(row, colL))
	}

	return counts, nil
}

// Write renders the report CSV: gate, pattern, count. Gates in Φ, K, L
// order; within a gate, counts descending then pattern ascending.
func Write(path string, counts *Counts, log *logger.Logger) error {
	err := util.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"gate", "pattern", "count"}); err != nil {
			return err
		}
		for _, gate := range []struct {
			label string
			m     map[string]int
		}{
			{GatePhi, counts.Phi},
			{GateK, counts.K},
			{GateL, counts.L},
		} {
			for _, entry := range ranked(gate.m) {
				if err := cw.Write([]string{gate.label, entry.pattern, fmt.Sprint(entry.count)}); err != nil {
					return err
				}
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return err
	}

	log.Info("pattern report written", "path", path,
		"phi", len(counts.Phi), "k", len(counts.K), "l", len(counts.L))
	return nil
}

type rankedEntry struct {
	pattern string
	count   int
}

func ranked(m map[string]int) []rankedEntry {
	out := make([]rankedEntry, 0, len(m))
	for pattern, count := range m {
		out = append(out, rankedEntry{pattern, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].pattern < out[j].pattern
	})
	return out
}

func countList(m map[string]int, raw string) {
	if raw == "" || raw == "[]" {
		return
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return
	}
	for _, item := range items {
		m[item]++
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func indexOf(header []string, name string) int {
	for i, c := range header {
		if c == name {
			return i
		}
	}
	return -1
}
