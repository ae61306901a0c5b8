package cli

import (
	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/sample"
)

var (
	urlsPlanPath string
	urlsOutPath  string
)

// urlsCmd represents the urls command
var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "Generate the product-URL table from the sampling plan",
	Long: `Generate product URL targets for both cohorts: stratified
allocations for the representative cohort and keyword targets for the
targeted cohort. The same plan always yields the same table.

Example:
  claimlens urls --plan configs/sampling_plan.yaml --out data/product_urls.csv`,
	RunE: runURLs,
}

func init() {
	rootCmd.AddCommand(urlsCmd)

	urlsCmd.Flags().StringVar(&urlsPlanPath, "plan", "", "sampling plan YAML")
	urlsCmd.Flags().StringVar(&urlsOutPath, "out", "product_urls.csv", "output URL table")
	_ = urlsCmd.MarkFlagRequired("plan")
}

func runURLs(cmd *cobra.Command, args []string) error {
	log := newLogger()

	plan, err := config.LoadSamplingPlan(urlsPlanPath)
	if err != nil {
		return err
	}

	targets := sample.Generate(plan)
	return sample.WriteTable(urlsOutPath, targets, log)
}
