package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Flags shared by every command
	logLevel string // Log verbosity level
	logFile  string // Optional rotating log file

	// Flags shared by run and compare
	configPath    string            // YAML run configuration
	weeks         int               // Number of weeks to simulate
	tierPolicies  map[string]string // Tier=POLICY overrides
	predictorPath string            // Trained model file for predictive tiers
	narratorName  string            // none, template or llm
	demandKind    string            // constant, step or random
	seed          int64             // Seed for random demand
	traceLevel    string            // none or decisions
	dbPath        string            // SQLite archive of completed runs
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "chainreact",
	Short: "Turn-based beer game simulator for the bullwhip effect",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := setupLogging(logLevel, logFile); err != nil {
			logrus.Fatalf("Invalid logging setup: %v", err)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addRunFlags registers the flags that shape a run configuration.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML run configuration")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "Number of weeks to simulate (default 50)")
	cmd.Flags().StringToStringVar(&tierPolicies, "tier", nil, "Ordering policy per tier, e.g. Retailer=PREDICTIVE")
	cmd.Flags().StringVar(&predictorPath, "predictor", "", "Trained model file used by PREDICTIVE tiers")
	cmd.Flags().StringVar(&narratorName, "narrator", "", "Event narrator: none, template, llm")
	cmd.Flags().StringVar(&demandKind, "demand", "", "Customer demand schedule: step, constant, random")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the random demand schedule")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "", "Decision trace level: none, decisions")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite archive for completed runs (default $CHAINREACT_DB)")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this rotating file")

	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&printWeeks, "weekly", false, "Print one line per simulated week")

	addRunFlags(compareCmd)

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default $CHAINREACT_ADDR or :8080)")
	serveCmd.Flags().DurationVar(&weekInterval, "interval", defaultWeekInterval, "Pause between streamed weeks")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "SQLite archive for completed runs (default $CHAINREACT_DB)")
	serveCmd.Flags().StringVar(&predictorPath, "predictor", "", "Trained model file used by PREDICTIVE tiers")

	rootCmd.AddCommand(runCmd, compareCmd, serveCmd)
}
