package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/extract"
	"github.com/tervyx/claimlens/internal/model"
)

var (
	extractPolicyPath string
	extractPagesPath  string
	extractAssetsPath string
	extractHTMLDir    string
	extractOutPath    string
	extractWorkers    int
	extractBaseURL    string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract verbatim claims from captured pages and images",
	Long: `Extract claim candidates from every captured asset. HTML pages go
through the configured backend (LLM or rules); product images go through OCR
when the binary is available. Output is one JSONL record per asset, in
capture order.

The LLM backend reads OPENAI_API_KEY from the environment. Extraction always
runs at temperature 0; any other setting is rejected at policy load.

Example:
  claimlens extract --policy configs/extraction_policy.yaml \
    --pages data/pages_sha256.csv --assets data/assets_index.csv \
    --html-dir data/html --out data/claims_raw.jsonl`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractPolicyPath, "policy", "", "extraction policy YAML")
	extractCmd.Flags().StringVar(&extractPagesPath, "pages", "", "pages index table")
	extractCmd.Flags().StringVar(&extractAssetsPath, "assets", "", "assets index table")
	extractCmd.Flags().StringVar(&extractHTMLDir, "html-dir", "data/html", "page payload directory")
	extractCmd.Flags().StringVar(&extractOutPath, "out", "claims_raw.jsonl", "output extraction stream")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 4, "parallel extraction workers")
	extractCmd.Flags().StringVar(&extractBaseURL, "base-url", "", "override LLM API base URL")
	_ = extractCmd.MarkFlagRequired("policy")
	_ = extractCmd.MarkFlagRequired("pages")
	_ = extractCmd.MarkFlagRequired("assets")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := newLogger()

	policy, err := config.LoadExtractionPolicy(extractPolicyPath)
	if err != nil {
		return err
	}

	captures, err := model.ReadCaptures(extractPagesPath)
	if err != nil {
		return err
	}
	assets, err := model.ReadAssets(extractAssetsPath)
	if err != nil {
		return err
	}

	engine, err := extract.NewEngine(policy, extract.Options{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: extractBaseURL,
	}, log)
	if err != nil {
		return err
	}

	stage := extract.NewStage(engine, extractHTMLDir, extractWorkers, log)
	records, err := stage.Run(cmd.Context(), captures, assets)
	if err != nil {
		return err
	}

	return extract.WriteStream(extractOutPath, records)
}
