package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/rulesession/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [batch-file]",
	Short: "Validate the config and, optionally, a batch document",
	Long: `Validate checks the configuration file. When a batch file is given it is
also decoded and checked against the batch schema without running it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&batchFormat, "format", "", "batch format (json, yaml); default from file extension")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "config: ok")

	if len(args) == 0 {
		return nil
	}
	batch, err := readBatch(cmd, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "batch: ok (%d commands)\n", len(batch.Commands()))
	return nil
}
