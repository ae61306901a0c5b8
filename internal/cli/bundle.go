package cli

import (
	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/bundle"
)

var (
	bundleOutDir       string
	bundleProductsPath string
	bundleClaimsPath   string
	bundleAssetsPath   string
)

// bundleCmd represents the bundle command
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Assemble the handoff bundle from the canonical tables",
	Long: `Copy the canonical tables into a bundle directory with a metadata
manifest carrying per-file digests, row counts and a combined digest, so the
receiving side can verify integrity before loading.

Example:
  claimlens bundle --out-dir export/tervyx_bundle \
    --products data/product_info.csv --claims data/claims.csv \
    --assets data/assets_index.csv`,
	RunE: runBundle,
}

func init() {
	rootCmd.AddCommand(bundleCmd)

	bundleCmd.Flags().StringVar(&bundleOutDir, "out-dir", "", "bundle output directory")
	bundleCmd.Flags().StringVar(&bundleProductsPath, "products", "", "product table")
	bundleCmd.Flags().StringVar(&bundleClaimsPath, "claims", "", "claims table")
	bundleCmd.Flags().StringVar(&bundleAssetsPath, "assets", "", "assets index table")
	_ = bundleCmd.MarkFlagRequired("out-dir")
	_ = bundleCmd.MarkFlagRequired("products")
	_ = bundleCmd.MarkFlagRequired("claims")
}

func runBundle(cmd *cobra.Command, args []string) error {
	log := newLogger()

	files := []string{bundleProductsPath, bundleClaimsPath}
	if bundleAssetsPath != "" {
		files = append(files, bundleAssetsPath)
	}
	return bundle.NewExporter(log).Export(bundleOutDir, files)
}
