package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ovforge/ovforge/internal/convert"
	"github.com/ovforge/ovforge/internal/hub"
	"github.com/ovforge/ovforge/internal/models"
	"github.com/ovforge/ovforge/internal/storage"
	"github.com/ovforge/ovforge/internal/ui"
	"github.com/ovforge/ovforge/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [model]",
	Short: "Inspect a checkpoint or a converted model",
	Long: `Shows what a conversion would do for a checkpoint, or the manifest of an
already converted model.

For a converted model name, the stored manifest is printed. For a local
checkpoint directory, the inferred library, task and model metadata are
shown.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	name := args[0]

	paths, err := storage.NewPaths()
	if err != nil {
		return fmt.Errorf("failed to initialize paths: %w", err)
	}

	// A converted model first
	registry, err := models.NewRegistry(paths)
	if err == nil {
		if manifest, err := registry.GetManifest(name); err == nil {
			printManifest(manifest)
			return nil
		}
	}

	// Otherwise treat it as a checkpoint
	if !hub.IsLocalCheckpoint(name) {
		return fmt.Errorf("%s is neither a converted model nor a local checkpoint; fetch it first with: ovforge fetch %s", name, name)
	}

	return inspectCheckpoint(name)
}

func printManifest(manifest *types.OutputManifest) {
	fmt.Printf("Model: %s\n", manifest.Name)
	if manifest.SourceModel != "" {
		fmt.Printf("Source: %s\n", manifest.SourceModel)
	}
	fmt.Printf("Created: %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Size: %s\n", ui.FormatBytes(manifest.TotalSize))

	if len(manifest.Components) > 0 {
		fmt.Printf("Components:\n")
		for _, c := range manifest.Components {
			fmt.Printf("  %s\n", c)
		}
	}

	if len(manifest.Files) > 0 {
		fmt.Printf("Files:\n")
		files := append([]types.ManifestFile(nil), manifest.Files...)
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		for _, f := range files {
			fmt.Printf("  %-40s %10s\n", f.Path, ui.FormatBytes(f.Size))
		}
	}
}

func inspectCheckpoint(dir string) error {
	library := convert.InferLibrary(dir)
	task := convert.InferTask("", dir, library)

	fmt.Printf("Checkpoint: %s\n", dir)
	fmt.Printf("Library: %s\n", library)
	fmt.Printf("Task: %s\n", task)

	if library == "diffusers" {
		idx, err := convert.ReadDiffusionIndex(dir)
		if err != nil {
			return fmt.Errorf("failed to read pipeline index: %w", err)
		}
		fmt.Printf("Pipeline class: %s\n", idx.ClassName)
	} else if hfConfig, err := convert.ReadHFConfig(dir); err == nil {
		if hfConfig.ModelType != "" {
			fmt.Printf("Model type: %s\n", hfConfig.ModelType)
		}
		if len(hfConfig.Architectures) > 0 {
			fmt.Printf("Architectures: %s\n", strings.Join(hfConfig.Architectures, ", "))
		}
	}

	fmt.Printf("\nConvert it with:\n  ovforge convert %s\n", dir)
	return nil
}
