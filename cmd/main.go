package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"barreau-extractor/internal/types"
)

var (
	cfg    *types.Config
	logger *logrus.Logger

	configPath string
	verbose    bool
	logFormat  string

	// exitCode is set by commands that report through the process status
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "barreau",
	Short: "French bar directory extractor",
	Long:  "Extracts the lawyer directories of French regional bar associations into JSON, CSV, email list and report artifacts.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if present
		_ = godotenv.Load()

		logger = newLogger()

		c, err := types.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// newLogger builds the single log sink shared by every component
func newLogger() *logrus.Logger {
	l := logrus.New()

	if logFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		// Set timestamp format with milliseconds
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			l.SetLevel(level)
		}
	} else if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
