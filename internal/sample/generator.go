// Package sample generates the product-URL table from the sampling plan:
// stratified allocations for the R cohort and keyword-driven targets for the
// T cohort. Output order follows the plan declaration, so regenerating from
// the same plan yields an identical table.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/model"
	"github.com/tervyx/claimlens/internal/util"
)

// maxKeywordsPerNode caps T cohort discovery per target node.
const maxKeywordsPerNode = 5

var urlColumns = []string{"asin", "url", "cohort", "method", "category_hint", "stratum"}

// Generate builds both cohorts' targets. ASINs are deterministic
// placeholders until a product discovery API is wired into this stage.
func Generate(plan *config.SamplingPlan) []model.URLTarget {
	targets := generateRepresentative(plan)
	return append(targets, generateTargeted(plan)...)
}

func generateRepresentative(plan *config.SamplingPlan) []model.URLTarget {
	var out []model.URLTarget
	for _, stratum := range plan.Representative.Strata {
		n := int(float64(plan.Representative.TargetN) * stratum.Allocation)
		for i := 0; i < n; i++ {
			asin := fmt.Sprintf("R%s%05d", namePrefix(stratum.Name), i)
			out = append(out, model.URLTarget{
				ASIN:         asin,
				URL:          "https://www.amazon.com/dp/" + asin,
				Cohort:       "R",
				Method:       "random",
				CategoryHint: stratum.Name,
				Stratum:      stratum.Name,
			})
		}
	}
	return out
}

func generateTargeted(plan *config.SamplingPlan) []model.URLTarget {
	var out []model.URLTarget
	for _, node := range plan.Targeted.Nodes {
		keywords := node.Keywords
		if len(keywords) > maxKeywordsPerNode {
			keywords = keywords[:maxKeywordsPerNode]
		}
		for i := range keywords {
			asin := fmt.Sprintf("T%s%05d", namePrefix(node.Name), i)
			out = append(out, model.URLTarget{
				ASIN:         asin,
				URL:          "https://www.amazon.com/dp/" + asin,
				Cohort:       "T",
				Method:       "keyword",
				CategoryHint: node.Name,
				Stratum:      node.Name,
			})
		}
	}
	return out
}

func namePrefix(name string) string {
	upper := strings.ToUpper(name)
	if len(upper) > 3 {
		upper = upper[:3]
	}
	return upper
}

// WriteTable writes the product-URL table through the rename barrier.
func WriteTable(path string, targets []model.URLTarget, log *logger.Logger) error {
	err := util.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(urlColumns); err != nil {
			return err
		}
		for _, t := range targets {
			row := []string{t.ASIN, t.URL, t.Cohort, t.Method, t.CategoryHint, t.Stratum}
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

	r, t := 0, 0
	for _, target := range targets {
		if target.Cohort == "R" {
			r++
		} else {
			t++
		}
	}
	log.Info("url table written", "path", path, "representative", r, "targeted", t)
	return nil
}
