package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ovforge/ovforge/internal/api/client"
	"github.com/ovforge/ovforge/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List converted models",
	Long: `Shows models that have been converted to OpenVINO IR on this machine.

Use 'ovforge inspect <name>' to see the full manifest of a model.`,
	RunE: runList,
}

var removeCmd = &cobra.Command{
	Use:   "remove [model-name]",
	Short: "Remove a converted model from the registry",
	Long: `Removes a converted model from the registry. The files stay on disk;
delete the output directory to reclaim space.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if err := ensureDaemonRunning(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	apiClient := client.NewClient(getDaemonURL())

	models, err := apiClient.ListModels()
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	fmt.Println("Converted models:")
	fmt.Println()

	if len(models) == 0 {
		fmt.Println("No models found.")
		fmt.Println("\nUse 'ovforge convert <model>' to convert a model.")
		fmt.Println("Use 'ovforge jobs submit <model>' to queue a conversion on the daemon.")
		return nil
	}

	sort.Slice(models, func(i, j int) bool {
		return modelName(models[i]) < modelName(models[j])
	})

	totalSize := int64(0)
	for _, model := range models {
		displayModel(model)
		if size, ok := model["total_size"].(float64); ok {
			totalSize += int64(size)
		}
	}

	fmt.Printf("\nTotal models: %d\n", len(models))
	if totalSize > 0 {
		fmt.Printf("Total disk usage: %s\n", ui.FormatBytes(totalSize))
	}

	return nil
}

func displayModel(model map[string]interface{}) {
	fmt.Printf("  %s\n", modelName(model))

	if size, ok := model["total_size"].(float64); ok && size > 0 {
		fmt.Printf("    Size: %s", ui.FormatBytes(int64(size)))
		if source, ok := model["source_model"].(string); ok && source != "" {
			fmt.Printf(" | Source: %s", source)
		}
		fmt.Println()
	}

	if components, ok := model["components"].([]interface{}); ok && len(components) > 0 {
		fmt.Printf("    Components:")
		for _, c := range components {
			if name, ok := c.(string); ok {
				fmt.Printf(" %s", name)
			}
		}
		fmt.Println()
	}

	fmt.Println()
}

func modelName(model map[string]interface{}) string {
	if name, ok := model["name"].(string); ok {
		return name
	}
	return "unknown"
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := ensureDaemonRunning(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	apiClient := client.NewClient(getDaemonURL())
	if err := apiClient.RemoveModel(name); err != nil {
		return err
	}

	fmt.Printf("Model %s removed from the registry. Files stay on disk.\n", name)
	return nil
}
