package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFuse/internal/logging"
	"github.com/OpenTraceLab/OpenTraceFuse/internal/runner"
)

var itfOutputDir string

var itfCmd = &cobra.Command{
	Use:   "itf <log-dir>",
	Short: "Parse ITF test logs into row and full-string reports",
	Long: `Parse every ITF log (.itf, .txt, .itf.gz) of a directory, keep the test
names of the active mapping profile and write one row per token value plus
the reassembled register strings.

Examples:
  fusecheck itf logs/
  fusecheck itf logs/ -o out/ --visualid V1,V2 --profile lockout_RAP`,
	Args: cobra.ExactArgs(1),
	RunE: runITF,
}

func init() {
	rootCmd.AddCommand(itfCmd)

	itfCmd.Flags().StringVarP(&itfOutputDir, "output", "o", "output", "output directory")
	itfCmd.Flags().StringVar(&ubeFile, "ube", "", "database dump naming the reports <lot>_<location>")
	addUnitFlags(itfCmd)
}

func runITF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ITF.Dir = args[0]
	if cmd.Flags().Changed("output") || configFile == "" {
		cfg.Output.Dir = itfOutputDir
	}
	if cmd.Flags().Changed("ube") {
		cfg.Inputs.UBE = ubeFile
	}
	applyUnitFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, runID := logging.WithRun(logger)
	sum, err := runner.New(cfg, log).RunITF(cmd.Context())
	if sum != nil {
		sum.Print(os.Stdout)
	}
	if err != nil {
		return fmt.Errorf("itf %s: %w", runID, err)
	}
	return nil
}
