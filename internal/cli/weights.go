package cli

import (
	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/weights"
)

var (
	weightsPlanPath     string
	weightsProductsPath string
)

// weightsCmd represents the weights command
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Estimate sampling weights for the representative cohort",
	Long: `Recompute sampling weights from the plan's stratum allocations and
the observed representative counts, rewriting only the sampling_weight column
of the product table. Targeted cohort rows are never weighted.

Example:
  claimlens weights --plan configs/sampling_plan.yaml --products data/product_info.csv`,
	RunE: runWeights,
}

func init() {
	rootCmd.AddCommand(weightsCmd)

	weightsCmd.Flags().StringVar(&weightsPlanPath, "plan", "", "sampling plan YAML")
	weightsCmd.Flags().StringVar(&weightsProductsPath, "products", "", "product table to reweight")
	_ = weightsCmd.MarkFlagRequired("plan")
	_ = weightsCmd.MarkFlagRequired("products")
}

func runWeights(cmd *cobra.Command, args []string) error {
	log := newLogger()

	plan, err := config.LoadSamplingPlan(weightsPlanPath)
	if err != nil {
		return err
	}

	return weights.New(plan, log).Apply(weightsProductsPath)
}
