package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovforge/ovforge/internal/hub"
	"github.com/ovforge/ovforge/internal/storage"
	"github.com/ovforge/ovforge/internal/ui"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [model-id]",
	Short: "Download a checkpoint from the HuggingFace hub",
	Long: `Downloads a checkpoint repository into the local cache so later
conversions can run without network access.

Gated repositories are authenticated with --token or the HF_TOKEN
environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	fetchRevision string
	fetchToken    string
	fetchFull     bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchRevision, "revision", "", "branch or revision to fetch (default: the remote default branch)")
	fetchCmd.Flags().StringVar(&fetchToken, "token", "", "HuggingFace access token for gated repositories")
	fetchCmd.Flags().BoolVar(&fetchFull, "full-history", false, "fetch the full git history instead of a shallow clone")
}

func runFetch(cmd *cobra.Command, args []string) error {
	modelID := args[0]

	paths, err := storage.NewPaths()
	if err != nil {
		return fmt.Errorf("failed to initialize paths: %w", err)
	}
	if err := paths.Initialize(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	depth := 1
	if fetchFull {
		depth = 0
	}

	spinner := ui.NewSpinner(fmt.Sprintf("Fetching %s", modelID))
	localPath, err := hub.Snapshot(cmd.Context(), modelID, paths.CacheDir(), hub.CloneOptions{
		Branch:   fetchRevision,
		Depth:    depth,
		Token:    fetchToken,
		Progress: os.Stderr,
	})
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("failed to fetch model: %w", err)
	}

	size := int64(0)
	if usage, err := paths.GetDiskUsage(); err == nil {
		size = usage.Cache
	}

	fmt.Printf("Checkpoint available at: %s\n", localPath)
	if size > 0 {
		fmt.Printf("Cache size: %s\n", ui.FormatBytes(size))
	}
	fmt.Printf("\nConvert it with:\n  ovforge convert %s\n", modelID)

	return nil
}
