package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/rulesession/internal/config"
)

const version = "0.1.0"

// Persistent flag values shared by every subcommand.
var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "rulesession",
	Short: "rulesession - run command batches against a rule session",
	Long: `rulesession executes JSON or YAML command batches against a fresh
stateful rule session and prints the execution results.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: checkGlobalFlags,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rulesession/rulesession.json)")
	flags.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.SetVersionTemplate("rulesession version {{.Version}}\n")
}

// checkGlobalFlags rejects a bad --log-level before any config is read.
func checkGlobalFlags(cmd *cobra.Command, _ []string) error {
	if logLevel == "" {
		return nil
	}
	if err := config.NewValidator().ValidateLogLevel(logLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
