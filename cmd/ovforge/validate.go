package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovforge/ovforge/internal/convert"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate a conversion config",
	Long: `Checks a conversion config against the supported libraries, frameworks,
weight formats, quant modes and backup precisions.

The config can be a JSON file or, without an argument, assembled from the
conversion flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addConversionFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var passCfg *convert.PassConfig

	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		passCfg = &convert.PassConfig{}
		if err := json.Unmarshal(data, passCfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		passCfg = passConfigFromFlags(cmd)
	}

	if !convert.Validate(passCfg) {
		return fmt.Errorf("config is invalid")
	}

	fmt.Println("Config is valid")
	return nil
}
