// Package cli wires the pipeline stages into subcommands. Each stage reads
// the previous stage's tables and writes its own through the rename barrier,
// so any stage can be re-run in isolation.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tervyx/claimlens/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimlens",
	Short: "Claimlens - marketplace claim capture and normalization pipeline",
	Long: `Claimlens turns scraped product listings into normalized,
provenance-tracked claim tables.

The pipeline runs in stages: urls, fetch, extract, normalize, validate,
weights, report, bundle. Each stage reads the previous stage's output files
and writes its own, so stages can be re-run independently.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("claimlens v0.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.claimlens")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAIMLENS_*
	viper.SetEnvPrefix("CLAIMLENS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// newLogger builds the stage logger honoring the verbose flag.
func newLogger() *logger.Logger {
	level := "info"
	if viper.GetBool("verbose") {
		level = "debug"
	}
	return logger.New(level)
}
