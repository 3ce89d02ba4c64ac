package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceFuse/internal/config"
	"github.com/OpenTraceLab/OpenTraceFuse/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configFile string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fusecheck",
	Short: "Fuse-bit reconciliation between specification, definitions and tested units",
	Long: `fusecheck reconciles the fuse bits of tested units against the QDF
specification (sspec.txt), the fuse definitions (fuseDef.json), the token
mapping (MTL_OLF.xml) and the manufacturing database dump (*.ube), and
writes the results as CSV reports.

Examples:
  fusecheck run input/ output/ --sspec L0V8 --ituff logs/   # Full reconciliation
  fusecheck itf logs/ -o output/                           # Parse test logs only
  fusecheck decode A5BA2B3                                  # Expand a fuse string
  fusecheck extract --bits 10100101 --start 0 --end 3      # Slice a register`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"configuration file (.toml, .yaml or .json)")
}

// loadConfig reads --config over the defaults.
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}
