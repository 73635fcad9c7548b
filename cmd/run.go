package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"barreau-extractor/adapters"
	"barreau-extractor/extractor"
	"barreau-extractor/internal/types"
)

var runFlags struct {
	limit            int
	workers          int
	headless         bool
	visual           bool
	outputDir        string
	genericThreshold int
	sitesFile        string
	retries          int
}

var runCmd = &cobra.Command{
	Use:   "run <site>",
	Short: "Extract one bar directory",
	Long:  "Enumerates the directory of one registered site, builds and cleans the lawyer records and writes the run artifacts. Exit status: 0 success, 1 fatal error, 2 no record extracted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		registry, err := loadRegistry(runFlags.sitesFile)
		if err != nil {
			return err
		}

		result, err := extractor.NewRunner(cfg, logger).RunSite(ctx, registry, args[0])
		if err != nil {
			return err
		}

		exitCode = extractor.ExitCode(result, nil)
		if result.Interrupted {
			logger.Warnf("Interrupted: partial results saved to %s", result.Checkpoints[len(result.Checkpoints)-1])
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.limit, "limit", 0, "Maximum number of listings to process (0 = all)")
	f.IntVar(&runFlags.workers, "workers", 1, "Parallel detail fetches (1-10)")
	f.BoolVar(&runFlags.headless, "headless", true, "Run the scripted browser headless")
	f.BoolVar(&runFlags.visual, "visual", false, "Show the scripted browser window")
	f.StringVar(&runFlags.outputDir, "output-dir", "output", "Directory for the run artifacts")
	f.IntVar(&runFlags.genericThreshold, "generic-threshold", 50, "Records sharing an email before it is treated as generic")
	f.StringVar(&runFlags.sitesFile, "sites", "", "YAML file with additional site definitions")
	f.IntVar(&runFlags.retries, "retries", 2, "Retries of transient fetch errors")

	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overlays the flags the user set onto the loaded configuration
func applyRunFlags(cmd *cobra.Command, c *types.Config) {
	f := cmd.Flags()
	if f.Changed("limit") {
		c.Limit = runFlags.limit
	}
	if f.Changed("workers") {
		c.Workers = runFlags.workers
	}
	if f.Changed("headless") {
		c.Headless = runFlags.headless
	}
	if runFlags.visual {
		c.Headless = false
	}
	if f.Changed("output-dir") {
		c.OutputDir = runFlags.outputDir
	}
	if f.Changed("generic-threshold") {
		c.GenericEmailThreshold = runFlags.genericThreshold
	}
	if f.Changed("retries") {
		c.MaxRetries = runFlags.retries
	}
}

func loadRegistry(sitesFile string) (*adapters.Registry, error) {
	registry, err := adapters.NewRegistry()
	if err != nil {
		return nil, err
	}
	if sitesFile != "" {
		if err := registry.LoadFile(sitesFile); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
