// Package weights applies post-stratification weighting to the
// representative cohort. The targeted cohort is intentionally biased and is
// excluded from weighting entirely.
package weights

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/util"
)

// Estimator rewrites the sampling_weight column of the product table in
// place; every other column stays byte-identical.
type Estimator struct {
	plan *config.SamplingPlan
	log  *logger.Logger
}

// New creates an estimator from the sampling plan.
func New(plan *config.SamplingPlan, log *logger.Logger) *Estimator {
	return &Estimator{plan: plan, log: log}
}

// StratumWeight computes one stratum's weight: declared target proportion
// over observed proportion, rounded to 4 decimal places. A stratum absent
// from the sample gets the explicit neutral weight 1.0, never a division
// fault.
func StratumWeight(target, observed float64) float64 {
	if observed == 0 {
		return 1.0
	}
	return math.Round(target/observed*10000) / 10000
}

// Apply computes per-stratum weights over the R cohort and rewrites the
// product table through the atomic rename barrier.
func (e *Estimator) Apply(productPath string) error {
	header, rows, err := readAll(productPath)
	if err != nil {
		return err
	}

	colCohort := indexOf(header, "sampling_cohort")
	colStratum := indexOf(header, "category_path")
	colWeight := indexOf(header, "sampling_weight")
	if colCohort < 0 || colStratum < 0 || colWeight < 0 {
		return fmt.Errorf("product table %s is missing sampling columns", productPath)
	}

	// Count R cohort rows per stratum label.
	counts := make(map[string]int)
	total := 0
	for _, row := range rows {
		if row[colCohort] != "R" {
			continue
		}
		counts[row[colStratum]]++
		total++
	}

	allocations := e.plan.Allocations()
	weightOf := make(map[string]float64, len(counts))
	for stratum, count := range counts {
		observed := float64(count) / float64(total)
		target, declared := allocations[stratum]
		if !declared {
			// No declared allocation for this label: neutral, not a guess.
			e.log.Warn("stratum not in sampling plan, weight stays neutral", "stratum", stratum)
			weightOf[stratum] = 1.0
			continue
		}
		weightOf[stratum] = StratumWeight(target, observed)
	}

	updated := 0
	for _, row := range rows {
		if row[colCohort] != "R" {
			continue
		}
		row[colWeight] = fmt.Sprintf("%.4f", weightOf[row[colStratum]])
		updated++
	}

	err = util.WriteFileAtomic(productPath, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return err
	}

	e.log.Info("sampling weights applied",
		"cohort_rows", total, "strata", len(counts), "updated", updated)
	return nil
}

func readAll(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func indexOf(header []string, name string) int {
	for i, c := range header {
		if c == name {
			return i
		}
	}
	return -1
}
