package hub

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const defaultHubHost = "https://huggingface.co"

// CloneOptions controls how a checkpoint repository is fetched.
type CloneOptions struct {
	// URL overrides the hub URL derived from the model id. Useful for
	// mirrors and for local repositories.
	URL string

	// Branch or revision to fetch; empty means the remote default.
	Branch string

	// Depth for a shallow clone; 0 means full history.
	Depth int

	// Token authenticates against gated repositories. Falls back to the
	// HF_TOKEN environment variable.
	Token string

	// Progress receives clone progress output.
	Progress io.Writer
}

// RepoURL returns the hub URL for a model id such as "meta-llama/Llama-3.1-8B".
func RepoURL(modelID string) string {
	return defaultHubHost + "/" + modelID
}

// IsLocalCheckpoint reports whether nameOrPath points at a checkpoint
// directory on disk rather than a hub id.
func IsLocalCheckpoint(nameOrPath string) bool {
	info, err := os.Stat(nameOrPath)
	return err == nil && info.IsDir()
}

// Snapshot clones a checkpoint repository into destDir and returns the
// local path. A directory that already holds a checkpoint is reused as is.
func Snapshot(ctx context.Context, modelID, destDir string, opts CloneOptions) (string, error) {
	if opts.URL == "" {
		if !strings.Contains(modelID, "/") {
			return "", fmt.Errorf("invalid model id %q: expected owner/name", modelID)
		}
		opts.URL = RepoURL(modelID)
	}

	localPath := filepath.Join(destDir, filepath.FromSlash(modelID))

	// Reuse an existing snapshot
	if fetched(localPath) {
		return localPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL:      opts.URL,
		Progress: opts.Progress,
	}

	if opts.Branch != "" && opts.Branch != "main" && opts.Branch != "master" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	if opts.Depth > 0 {
		cloneOptions.Depth = opts.Depth
	}

	// Gated hub repositories need token authentication
	token := opts.Token
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}
	if token != "" && strings.Contains(opts.URL, "huggingface.co") {
		cloneOptions.Auth = &githttp.BasicAuth{
			Username: "hf",
			Password: token,
		}
	}

	_, err := git.PlainCloneContext(ctx, localPath, false, cloneOptions)
	if err != nil {
		// Clean up partial clone
		os.RemoveAll(localPath)

		switch err {
		case transport.ErrAuthenticationRequired:
			return "", fmt.Errorf("repository %s requires authentication (set HF_TOKEN): %w", opts.URL, err)
		case transport.ErrRepositoryNotFound:
			return "", fmt.Errorf("repository %s not found: %w", opts.URL, err)
		default:
			return "", fmt.Errorf("failed to clone %s: %w", opts.URL, err)
		}
	}

	// The history is dead weight next to multi-gigabyte checkpoints
	if err := os.RemoveAll(filepath.Join(localPath, ".git")); err != nil {
		fmt.Printf("Warning: failed to remove .git directory: %v\n", err)
	}

	return localPath, nil
}

// fetched reports whether localPath already holds checkpoint files
func fetched(localPath string) bool {
	for _, marker := range []string{"config.json", "model_index.json", "config_sentence_transformers.json", "open_clip_config.json"} {
		if _, err := os.Stat(filepath.Join(localPath, marker)); err == nil {
			return true
		}
	}
	return false
}
