package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/cache"
	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/fetch"
	"github.com/tervyx/claimlens/internal/model"
)

var (
	fetchPolicyPath string
	fetchURLsPath   string
	fetchHTMLDir    string
	fetchPagesOut   string
	fetchAssetsOut  string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Capture product pages listed in the URL table",
	Long: `Fetch every URL target with per-domain rate limiting, robots.txt
compliance and a layered payload cache. Writes one HTML file per page plus
the pages and assets index tables.

Example:
  claimlens fetch --scraping configs/scraping_policy.yaml \
    --urls data/product_urls.csv --html-dir data/html \
    --pages-out data/pages_sha256.csv --assets-out data/assets_index.csv`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchPolicyPath, "scraping", "", "scraping policy YAML")
	fetchCmd.Flags().StringVar(&fetchURLsPath, "urls", "", "product-URL table")
	fetchCmd.Flags().StringVar(&fetchHTMLDir, "html-dir", "data/html", "page payload directory")
	fetchCmd.Flags().StringVar(&fetchPagesOut, "pages-out", "pages_sha256.csv", "output pages index")
	fetchCmd.Flags().StringVar(&fetchAssetsOut, "assets-out", "assets_index.csv", "output assets index")
	_ = fetchCmd.MarkFlagRequired("scraping")
	_ = fetchCmd.MarkFlagRequired("urls")
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := newLogger()

	policy, err := config.LoadScrapingPolicy(fetchPolicyPath)
	if err != nil {
		return err
	}

	targets, err := model.ReadURLTargetList(fetchURLsPath)
	if err != nil {
		return err
	}

	var store cache.Cache
	if policy.CacheDir != "" {
		ttl := time.Duration(policy.CacheTTLHours) * time.Hour
		store = cache.NewLayeredCache(ttl, policy.CacheDir, ttl)
	}

	fetcher := fetch.NewFetcher(policy, store, log)
	stage := fetch.NewStage(fetcher, fetchHTMLDir, log)
	return stage.Run(cmd.Context(), targets, fetchPagesOut, fetchAssetsOut)
}
