package hub

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCheckpointRepo creates a local git repository holding a minimal
// transformers checkpoint, so clone tests never touch the network.
func newCheckpointRepo(t *testing.T) string {
	t.Helper()

	repoDir := t.TempDir()
	repo, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "config.json"), []byte(`{"model_type":"llama"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "tokenizer.json"), []byte(`{}`), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("add checkpoint", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "tester",
			Email: "tester@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return repoDir
}

func TestRepoURL(t *testing.T) {
	assert.Equal(t, "https://huggingface.co/meta-llama/Llama-3.1-8B", RepoURL("meta-llama/Llama-3.1-8B"))
}

func TestIsLocalCheckpoint(t *testing.T) {
	tmpDir := t.TempDir()

	assert.True(t, IsLocalCheckpoint(tmpDir))
	assert.False(t, IsLocalCheckpoint("meta-llama/Llama-3.1-8B"))
	assert.False(t, IsLocalCheckpoint(filepath.Join(tmpDir, "missing")))
}

func TestSnapshotInvalidModelID(t *testing.T) {
	_, err := Snapshot(context.Background(), "no-owner", t.TempDir(), CloneOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected owner/name")
}

func TestSnapshotClonesRepository(t *testing.T) {
	repoDir := newCheckpointRepo(t)
	cacheDir := t.TempDir()

	localPath, err := Snapshot(context.Background(), "acme/tiny-llama", cacheDir, CloneOptions{URL: repoDir})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cacheDir, "acme", "tiny-llama"), localPath)
	assert.FileExists(t, filepath.Join(localPath, "config.json"))
	assert.FileExists(t, filepath.Join(localPath, "tokenizer.json"))

	// Git history is stripped from the snapshot
	assert.NoDirExists(t, filepath.Join(localPath, ".git"))
}

func TestSnapshotReusesExisting(t *testing.T) {
	cacheDir := t.TempDir()

	existing := filepath.Join(cacheDir, "acme", "tiny-llama")
	require.NoError(t, os.MkdirAll(existing, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "config.json"), []byte(`{}`), 0644))

	// URL is bogus; a reused snapshot never touches it
	localPath, err := Snapshot(context.Background(), "acme/tiny-llama", cacheDir, CloneOptions{URL: "/does/not/exist"})
	require.NoError(t, err)
	assert.Equal(t, existing, localPath)
}

func TestSnapshotCloneFailureCleansUp(t *testing.T) {
	cacheDir := t.TempDir()

	_, err := Snapshot(context.Background(), "acme/missing", cacheDir, CloneOptions{URL: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)

	assert.NoDirExists(t, filepath.Join(cacheDir, "acme", "missing"))
}
