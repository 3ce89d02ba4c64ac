package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceFuse/internal/config"
	"github.com/OpenTraceLab/OpenTraceFuse/internal/logging"
	"github.com/OpenTraceLab/OpenTraceFuse/internal/runner"
)

var (
	qdfSpec    string
	ubeFile    string
	mtlolfFile string
	ituffDir   string
	visualIDs  string
	workers    int
	profile    string
	outputName string
	noSanitize bool
)

var runCmd = &cobra.Command{
	Use:   "run [input-dir] [output-dir]",
	Short: "Reconcile fuse data and write the CSV reports",
	Long: `Load every available source from the input directory, run the checks the
loaded sources allow and write the reports to the output directory.

  fuseDef.json + MTL_OLF.xml   token/definition match
  MTL_OLF.xml + *.ube          database unit data check
  sspec.txt + fuseDef.json     specification breakdown per QDF
  ITF logs                     per-unit status of every fuse

Examples:
  fusecheck run input/
  fusecheck run input/ output/ --sspec L0V8,L0VS --ituff logs/
  fusecheck run input/ --sspec '*' --ube input/LOT1_SITE.ube --visualid V1,V2`,
	Args: cobra.MaximumNArgs(2),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&qdfSpec, "sspec", "", `QDFs to check, comma separated, or "*" for all`)
	runCmd.Flags().StringVar(&ubeFile, "ube", "", "database dump (default: first *.ube of the input directory)")
	runCmd.Flags().StringVar(&mtlolfFile, "mtlolf", "", "token mapping file (default: <input>/MTL_OLF.xml)")
	runCmd.Flags().StringVar(&ituffDir, "ituff", "", "directory of ITF test logs")
	addUnitFlags(runCmd)
}

// addUnitFlags registers the flags shared by the commands reading ITF logs.
func addUnitFlags(c *cobra.Command) {
	c.Flags().StringVar(&visualIDs, "visualid", "", `visual ids to keep, comma separated, or "*" for all`)
	c.Flags().IntVarP(&workers, "workers", "j", 0, "concurrent ITF file parsers (0 = one per CPU)")
	c.Flags().StringVar(&profile, "profile", "", "test-name mapping profile")
	c.Flags().StringVar(&outputName, "name", "", "report name (default: fuseDef file stem)")
	c.Flags().BoolVar(&noSanitize, "no-sanitize", false, "write cells without formula and HTML escaping")
}

// applyUnitFlags copies the explicitly set shared flags into cfg.
func applyUnitFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("visualid") {
		cfg.ITF.VisualIDs = []string{visualIDs}
	}
	if flags.Changed("workers") {
		cfg.ITF.Workers = workers
	}
	if flags.Changed("profile") {
		cfg.Mapping.Active = profile
	}
	if flags.Changed("name") {
		cfg.Output.Name = outputName
	}
	if noSanitize {
		cfg.Output.Sanitize = false
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Inputs.Dir = args[0]
	}
	if len(args) > 1 {
		cfg.Output.Dir = args[1]
	}
	flags := cmd.Flags()
	if flags.Changed("sspec") {
		cfg.Inputs.QDF = qdfSpec
	}
	if flags.Changed("ube") {
		cfg.Inputs.UBE = ubeFile
	}
	if flags.Changed("mtlolf") {
		cfg.Inputs.MTLOLF = mtlolfFile
	}
	if flags.Changed("ituff") {
		cfg.ITF.Dir = ituffDir
	}
	applyUnitFlags(cmd, cfg)

	if info, err := os.Stat(cfg.Inputs.Dir); err != nil || !info.IsDir() {
		return fmt.Errorf("invalid input directory %q", cfg.Inputs.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, runID := logging.WithRun(logger)
	log.Debug("configuration",
		zap.String("input", cfg.Inputs.Dir),
		zap.String("qdf", cfg.Inputs.QDF),
		zap.String("profile", cfg.Mapping.Active))

	sum, err := runner.New(cfg, log).Run(cmd.Context())
	if sum != nil {
		sum.Print(os.Stdout)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	return nil
}
