package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tervyx/claimlens/internal/validate"
)

var (
	validateProductsPath string
	validateClaimsPath   string
	validateSchemaDir    string
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run quality checks over the canonical tables",
	Long: `Validate both canonical tables: JSON Schema conformance per row,
the zero-temperature contract, required provenance fields, referential
integrity between tables, and gate aggregate consistency.

Exits nonzero when any check fails, so the command gates the handoff in
automation.

Example:
  claimlens validate --products data/product_info.csv \
    --claims data/claims.csv --schemas configs/schemas`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateProductsPath, "products", "", "product table")
	validateCmd.Flags().StringVar(&validateClaimsPath, "claims", "", "claims table")
	validateCmd.Flags().StringVar(&validateSchemaDir, "schemas", "", "JSON schema directory")
	_ = validateCmd.MarkFlagRequired("products")
	_ = validateCmd.MarkFlagRequired("claims")
	_ = validateCmd.MarkFlagRequired("schemas")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := newLogger()

	validator, err := validate.New(validateSchemaDir, log)
	if err != nil {
		return err
	}

	report, err := validator.Run(validateProductsPath, validateClaimsPath)
	if err != nil {
		return err
	}

	if report.Pass() {
		fmt.Println("validation passed")
		return nil
	}

	for _, v := range report.Sorted() {
		fmt.Fprintf(os.Stderr, "%s row %d [%s]: %s\n", v.Table, v.Row, v.Check, v.Message)
	}
	return fmt.Errorf("validation failed: %d violations", len(report.Violations))
}
