package cli

import (
	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/extract"
	"github.com/tervyx/claimlens/internal/gate"
	"github.com/tervyx/claimlens/internal/model"
	"github.com/tervyx/claimlens/internal/normalize"
)

var (
	normStreamPath  string
	normHintsPath   string
	normURLsPath    string
	normPagesPath   string
	normProductsOut string
	normClaimsOut   string
)

// normalizeCmd represents the normalize command
var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Fold the extraction stream into the canonical tables",
	Long: `Normalize the extraction stream into the product and claim tables.
Every claim is classified against the gate-hint patterns; per-product gate
aggregates fold as the stream is read. Identical input and hint configuration
produce byte-identical tables.

Example:
  claimlens normalize --stream data/claims_raw.jsonl \
    --hints configs/policy_hints.yaml --urls data/product_urls.csv \
    --pages data/pages_sha256.csv \
    --products-out data/product_info.csv --claims-out data/claims.csv`,
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringVar(&normStreamPath, "stream", "", "extraction stream JSONL")
	normalizeCmd.Flags().StringVar(&normHintsPath, "hints", "", "gate-hint policy YAML")
	normalizeCmd.Flags().StringVar(&normURLsPath, "urls", "", "product-URL table (sampling metadata join)")
	normalizeCmd.Flags().StringVar(&normPagesPath, "pages", "", "pages index table (capture provenance join)")
	normalizeCmd.Flags().StringVar(&normProductsOut, "products-out", "product_info.csv", "output product table")
	normalizeCmd.Flags().StringVar(&normClaimsOut, "claims-out", "claims.csv", "output claims table")
	_ = normalizeCmd.MarkFlagRequired("stream")
	_ = normalizeCmd.MarkFlagRequired("hints")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	log := newLogger()

	hints, err := config.LoadPolicyHints(normHintsPath)
	if err != nil {
		return err
	}
	classifier, err := gate.NewClassifier(hints)
	if err != nil {
		return err
	}

	targets := map[string]model.URLTarget{}
	if normURLsPath != "" {
		if targets, err = model.ReadURLTargets(normURLsPath); err != nil {
			return err
		}
	}

	captures := map[string]model.SourceCapture{}
	if normPagesPath != "" {
		list, err := model.ReadCaptures(normPagesPath)
		if err != nil {
			return err
		}
		for _, c := range list {
			captures[c.ASIN] = c
		}
	}

	normalizer := normalize.New(classifier, targets, captures, log)
	err = extract.StreamRecords(normStreamPath, normalizer.Process)
	if err != nil {
		return err
	}

	return normalizer.WriteTables(normProductsOut, normClaimsOut)
}
