package cli

import (
	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/report"
)

var (
	reportClaimsPath string
	reportOutPath    string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize gate-hint pattern frequencies across the claim table",
	Long: `Count how often each gate-hint pattern and lexical token fired
across the claim table, ranked by frequency within each gate. The report is
the tuning loop for the hint configuration.

Example:
  claimlens report --claims data/claims.csv --out data/pattern_report.csv`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportClaimsPath, "claims", "", "claims table")
	reportCmd.Flags().StringVar(&reportOutPath, "out", "pattern_report.csv", "output report")
	_ = reportCmd.MarkFlagRequired("claims")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := newLogger()

	counts, err := report.Collect(reportClaimsPath)
	if err != nil {
		return err
	}
	return report.Write(reportOutPath, counts, log)
}
